// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

// Event types deploywatch sends or watches.
const (
	EventTypeMessage = "m.room.message"
	EventTypeTopic   = "m.room.topic"
)

// Message types for MessageContent.MsgType.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
)

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// NewTextMessage returns an m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeText, Body: body}
}

// NewNoticeMessage returns an m.notice message. Clients render notices
// less prominently and other bots do not respond to them.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeNotice, Body: body}
}

// TopicContent is the content of an m.room.topic state event.
type TopicContent struct {
	Topic string `json:"topic"`
}

// Event is a room event as delivered by /sync.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           string         `json:"type"`
	Sender         string         `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// ContentString returns the string value of a content key, or "" when
// it is missing or not a string.
func (e Event) ContentString(key string) string {
	value, _ := e.Content[key].(string)
	return value
}

// IsState reports whether the event is a state event with the given
// type and an empty state key.
func (e Event) IsState(eventType string) bool {
	return e.Type == eventType && e.StateKey != nil && *e.StateKey == ""
}

// SyncOptions controls a /sync request.
type SyncOptions struct {
	// Since is the next_batch token of the previous sync. Empty for
	// the initial sync.
	Since string
	// Timeout is the long-poll wait in milliseconds. It is sent only
	// when SetTimeout is true, to tell zero from unset.
	Timeout    int
	SetTimeout bool
	// Filter is a filter ID or an inline JSON filter.
	Filter string
}

// SyncResponse is the top-level /sync response.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection holds per-room sync data for joined rooms, keyed by
// room ID.
type RoomsSection struct {
	Join map[string]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom is the sync data for one joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection holds timeline events.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection holds state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by event and state sends.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  string   `json:"room_id"`
	Servers []string `json:"servers"`
}

// JoinRoomResponse is returned by JoinRoom.
type JoinRoomResponse struct {
	RoomID string `json:"room_id"`
}
