// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "encoding/json"

// RoomFilter returns an inline /sync filter restricted to one room.
// Timeline events are limited to timelineTypes when any are given.
// Presence and account data are excluded; deploywatch never reads them.
func RoomFilter(roomID string, timelineTypes ...string) string {
	room := map[string]any{
		"rooms": []string{roomID},
		"state": map[string]any{"types": []string{EventTypeTopic}},
	}
	if len(timelineTypes) > 0 {
		room["timeline"] = map[string]any{"types": timelineTypes}
	}
	filter := map[string]any{
		"room":         room,
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}
	encoded, err := json.Marshal(filter)
	if err != nil {
		// Only maps of strings and slices; Marshal cannot fail.
		panic("messaging: encoding sync filter: " + err.Error())
	}
	return string(encoded)
}

// Localpart returns the localpart of a user ID: "alice" for
// "@alice:example.org". Malformed IDs are returned unchanged.
func Localpart(userID string) string {
	if len(userID) < 2 || userID[0] != '@' {
		return userID
	}
	for i := 1; i < len(userID); i++ {
		if userID[i] == ':' {
			return userID[1:i]
		}
	}
	return userID[1:]
}
