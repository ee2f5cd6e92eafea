// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const testRoom = "!deploys:example.org"

// newTestSession creates a Client and session pointing at a test
// server.
func newTestSession(t *testing.T, handler http.Handler) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL + "/", UserAgent: "deploywatch/test"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken("@deploywatch:example.org", "test-token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	return session
}

func assertAuth(t *testing.T, request *http.Request) {
	t.Helper()
	if got := request.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", got)
	}
}

func writeJSON(writer http.ResponseWriter, value any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(value)
}

func writeMatrixError(writer http.ResponseWriter, status int, code, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(map[string]string{"errcode": code, "error": message})
}

func TestNewClientValidation(t *testing.T) {
	for _, homeserver := range []string{"", "ftp://example.org", "://bad"} {
		if _, err := NewClient(ClientConfig{HomeserverURL: homeserver}); err == nil {
			t.Errorf("NewClient(%q) succeeded", homeserver)
		}
	}
	client, err := NewClient(ClientConfig{HomeserverURL: "https://matrix.example.org"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.SessionFromToken("@bot:example.org", ""); err == nil {
		t.Error("SessionFromToken accepted an empty token")
	}
}

func TestWhoAmI(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request)
		if request.URL.Path != "/_matrix/client/v3/account/whoami" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if got := request.Header.Get("User-Agent"); got != "deploywatch/test" {
			t.Errorf("User-Agent = %q", got)
		}
		writeJSON(writer, WhoAmIResponse{UserID: "@deploywatch:example.org", DeviceID: "DEV1"})
	}))

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if userID != "@deploywatch:example.org" {
		t.Errorf("unexpected user ID: %s", userID)
	}
}

func TestResolveAliasAndJoin(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request)
		switch {
		case request.Method == http.MethodGet && request.URL.Path == "/_matrix/client/v3/directory/room/#ops:example.org":
			writeJSON(writer, ResolveAliasResponse{RoomID: testRoom})
		case request.Method == http.MethodPost && request.URL.Path == "/_matrix/client/v3/join/"+testRoom:
			writeJSON(writer, JoinRoomResponse{RoomID: testRoom})
		default:
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
			writeMatrixError(writer, http.StatusNotFound, ErrCodeNotFound, "no")
		}
	}))

	roomID, err := session.ResolveAlias(context.Background(), "#ops:example.org")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	joined, err := session.JoinRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if joined != testRoom {
		t.Errorf("JoinRoom = %q, want %q", joined, testRoom)
	}
}

func TestSendMessageUsesUniqueTransactionIDs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request)
		if request.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", request.Method)
		}
		prefix := "/_matrix/client/v3/rooms/" + testRoom + "/send/m.room.message/"
		if !strings.HasPrefix(request.URL.Path, prefix) {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		transactionID := strings.TrimPrefix(request.URL.Path, prefix)
		mu.Lock()
		if seen[transactionID] {
			t.Errorf("transaction ID %q reused", transactionID)
		}
		seen[transactionID] = true
		mu.Unlock()

		var content MessageContent
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if content.MsgType != MsgTypeNotice || content.Body != `alice started push "d1" with args -r main` {
			t.Errorf("content = %+v", content)
		}
		writeJSON(writer, SendEventResponse{EventID: "$event"})
	}))

	for range 3 {
		eventID, err := session.SendMessage(context.Background(), testRoom,
			NewNoticeMessage(`alice started push "d1" with args -r main`))
		if err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
		if eventID != "$event" {
			t.Errorf("event ID = %q", eventID)
		}
	}
	if len(seen) != 3 {
		t.Errorf("saw %d transaction IDs, want 3", len(seen))
	}
}

func TestSetTopicAndTopic(t *testing.T) {
	var stored string
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request)
		// The empty state key leaves a trailing slash.
		if request.URL.Path != "/_matrix/client/v3/rooms/"+testRoom+"/state/m.room.topic/" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		switch request.Method {
		case http.MethodPut:
			var content TopicContent
			json.NewDecoder(request.Body).Decode(&content)
			stored = content.Topic
			writeJSON(writer, SendEventResponse{EventID: "$topic"})
		case http.MethodGet:
			if stored == "" {
				writeMatrixError(writer, http.StatusNotFound, ErrCodeNotFound, "Event not found.")
				return
			}
			writeJSON(writer, TopicContent{Topic: stored})
		}
	}))
	ctx := context.Background()

	topic, err := session.Topic(ctx, testRoom)
	if err != nil {
		t.Fatalf("Topic on a room without one: %v", err)
	}
	if topic != "" {
		t.Errorf("Topic = %q, want empty", topic)
	}

	if _, err := session.SetTopic(ctx, testRoom, "<deploywatch> 2 pushes running"); err != nil {
		t.Fatalf("SetTopic: %v", err)
	}
	topic, err = session.Topic(ctx, testRoom)
	if err != nil {
		t.Fatalf("Topic: %v", err)
	}
	if topic != "<deploywatch> 2 pushes running" {
		t.Errorf("Topic = %q", topic)
	}
}

func TestSync(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request)
		query := request.URL.Query()
		if query.Get("since") != "s1" || query.Get("timeout") != "0" {
			t.Errorf("query = %v", query)
		}
		if filter := query.Get("filter"); !strings.Contains(filter, testRoom) {
			t.Errorf("filter %q does not name the room", filter)
		}
		io.WriteString(writer, `{
			"next_batch": "s2",
			"rooms": {"join": {"!deploys:example.org": {
				"state": {"events": [{"type": "m.room.topic", "state_key": "", "sender": "@op:example.org", "content": {"topic": "ops"}}]},
				"timeline": {"events": [{"type": "m.room.message", "sender": "@alice:example.org", "content": {"msgtype": "m.text", "body": "status"}}]}
			}}}
		}`)
	}))

	response, err := session.Sync(context.Background(), SyncOptions{
		Since:      "s1",
		SetTimeout: true,
		Filter:     RoomFilter(testRoom, EventTypeMessage, EventTypeTopic),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if response.NextBatch != "s2" {
		t.Errorf("NextBatch = %q", response.NextBatch)
	}
	room, ok := response.Rooms.Join[testRoom]
	if !ok {
		t.Fatalf("room missing from %+v", response.Rooms)
	}
	if len(room.State.Events) != 1 || !room.State.Events[0].IsState(EventTypeTopic) {
		t.Errorf("state events = %+v", room.State.Events)
	}
	if got := room.State.Events[0].ContentString("topic"); got != "ops" {
		t.Errorf("topic = %q", got)
	}
	if got := room.Timeline.Events[0].ContentString("body"); got != "status" {
		t.Errorf("body = %q", got)
	}
}

func TestMatrixErrorResponses(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/_matrix/client/v3/account/whoami":
			writeMatrixError(writer, http.StatusUnauthorized, ErrCodeUnknownToken, "Unknown access token")
		default:
			writer.WriteHeader(http.StatusBadGateway)
			io.WriteString(writer, "upstream down")
		}
	}))

	_, err := session.WhoAmI(context.Background())
	if !IsMatrixError(err, ErrCodeUnknownToken) {
		t.Fatalf("WhoAmI error = %v, want M_UNKNOWN_TOKEN", err)
	}
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) || matrixErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode not recorded: %v", err)
	}

	_, err = session.Sync(context.Background(), SyncOptions{})
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("Sync error = %v, want raw body in message", err)
	}
	if errors.As(err, &matrixErr) {
		t.Error("non-JSON error body produced a MatrixError")
	}
}

func TestRetryAfter(t *testing.T) {
	err := &MatrixError{Code: ErrCodeLimitExceeded, RetryAfterMillis: 1500}
	if got := err.RetryAfter().Milliseconds(); got != 1500 {
		t.Errorf("RetryAfter = %dms", got)
	}
}

func TestLocalpart(t *testing.T) {
	tests := map[string]string{
		"@alice:example.org": "alice",
		"@bob":               "bob",
		"carol":              "carol",
		"":                   "",
	}
	for userID, want := range tests {
		if got := Localpart(userID); got != want {
			t.Errorf("Localpart(%q) = %q, want %q", userID, got, want)
		}
	}
}

func TestRoomFilter(t *testing.T) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(RoomFilter(testRoom, EventTypeMessage)), &decoded); err != nil {
		t.Fatalf("filter is not JSON: %v", err)
	}
	room := decoded["room"].(map[string]any)
	rooms := room["rooms"].([]any)
	if len(rooms) != 1 || rooms[0] != testRoom {
		t.Errorf("rooms = %v", rooms)
	}
	timeline := room["timeline"].(map[string]any)
	if types := timeline["types"].([]any); len(types) != 1 || types[0] != EventTypeMessage {
		t.Errorf("timeline types = %v", types)
	}
}
