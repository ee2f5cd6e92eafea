// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
)

// Session is the set of Matrix operations the daemon uses. It is
// implemented by *DirectSession and by fakes in tests.
type Session interface {
	// UserID returns the session's fully-qualified user ID.
	UserID() string

	WhoAmI(ctx context.Context) (string, error)

	// ResolveAlias resolves "#room:server" to a room ID.
	ResolveAlias(ctx context.Context, alias string) (string, error)

	// JoinRoom joins a room by ID or alias and returns the room ID.
	JoinRoom(ctx context.Context, roomIDOrAlias string) (string, error)

	SendMessage(ctx context.Context, roomID string, content MessageContent) (string, error)
	SendStateEvent(ctx context.Context, roomID, eventType, stateKey string, content any) (string, error)

	// GetStateEvent returns a state event's raw content. A missing
	// event is a *MatrixError with code M_NOT_FOUND.
	GetStateEvent(ctx context.Context, roomID, eventType, stateKey string) (json.RawMessage, error)

	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

var _ Session = (*DirectSession)(nil)
