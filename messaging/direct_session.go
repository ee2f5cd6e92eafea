// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// DirectSession is a Matrix session authenticated by access token.
// It is safe for concurrent use.
type DirectSession struct {
	client      *Client
	userID      string
	accessToken string
}

// UserID returns the session's user ID.
func (s *DirectSession) UserID() string {
	return s.userID
}

// CloseIdleConnections drops pooled connections of the underlying
// client.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// WhoAmI validates the access token and returns its user ID.
func (s *DirectSession) WhoAmI(ctx context.Context) (string, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: whoami failed: %w", err)
	}
	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// ResolveAlias resolves a room alias to a room ID.
func (s *DirectSession) ResolveAlias(ctx context.Context, alias string) (string, error) {
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(alias)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: resolve alias %q failed: %w", alias, err)
	}
	var response ResolveAliasResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse resolve alias response: %w", err)
	}
	if response.RoomID == "" {
		return "", fmt.Errorf("messaging: alias %q resolved to an empty room ID", alias)
	}
	return response.RoomID, nil
}

// JoinRoom joins a room. Joining a room the bot is already in is a
// no-op on the server and still returns the room ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomIDOrAlias string) (string, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomIDOrAlias)
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: join %q failed: %w", roomIDOrAlias, err)
	}
	var response JoinRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse join response: %w", err)
	}
	return response.RoomID, nil
}

// SendMessage sends an m.room.message event and returns its event ID.
func (s *DirectSession) SendMessage(ctx context.Context, roomID string, content MessageContent) (string, error) {
	return s.SendEvent(ctx, roomID, EventTypeMessage, content)
}

// SendEvent sends a timeline event with a fresh transaction ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID, eventType string, content any) (string, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID),
		url.PathEscape(eventType),
		url.PathEscape(newTransactionID()),
	)
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: send %s to %q failed: %w", eventType, roomID, err)
	}
	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// SendStateEvent sets a state event and returns its event ID.
func (s *DirectSession) SendStateEvent(ctx context.Context, roomID, eventType, stateKey string, content any) (string, error) {
	body, err := s.client.doRequest(ctx, http.MethodPut, statePath(roomID, eventType, stateKey), s.accessToken, content, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: set %s in %q failed: %w", eventType, roomID, err)
	}
	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse state response: %w", err)
	}
	return response.EventID, nil
}

// GetStateEvent fetches a state event's content.
func (s *DirectSession) GetStateEvent(ctx context.Context, roomID, eventType, stateKey string) (json.RawMessage, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, statePath(roomID, eventType, stateKey), s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get %s/%s in %q failed: %w", eventType, stateKey, roomID, err)
	}
	return json.RawMessage(body), nil
}

// SetTopic sets the room topic.
func (s *DirectSession) SetTopic(ctx context.Context, roomID, topic string) (string, error) {
	return s.SendStateEvent(ctx, roomID, EventTypeTopic, "", TopicContent{Topic: topic})
}

// Topic returns the room's current topic, or "" when none is set.
func (s *DirectSession) Topic(ctx context.Context, roomID string) (string, error) {
	return GetTopic(ctx, s, roomID)
}

// Sync performs one /sync request.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}
	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// GetTopic reads the m.room.topic state of roomID through any
// Session. A room without a topic yields "".
func GetTopic(ctx context.Context, session Session, roomID string) (string, error) {
	raw, err := session.GetStateEvent(ctx, roomID, EventTypeTopic, "")
	if err != nil {
		var matrixErr *MatrixError
		if errors.As(err, &matrixErr) && matrixErr.Code == ErrCodeNotFound {
			return "", nil
		}
		return "", err
	}
	var content TopicContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", fmt.Errorf("messaging: failed to parse topic of %q: %w", roomID, err)
	}
	return content.Topic, nil
}

func statePath(roomID, eventType, stateKey string) string {
	return fmt.Sprintf("/_matrix/client/v3/rooms/%s/state/%s/%s",
		url.PathEscape(roomID),
		url.PathEscape(eventType),
		url.PathEscape(stateKey),
	)
}

// newTransactionID returns a transaction ID unique across restarts,
// so a retried PUT is deduplicated but two sends never collide.
func newTransactionID() string {
	return "deploywatch-" + uuid.NewString()
}
