// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

type progressEvent struct {
	Action string  `cbor:"action"`
	ID     string  `cbor:"id"`
	Host   string  `cbor:"host"`
	Index  float64 `cbor:"index"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	first, err := Marshal(map[string]any{"id": "d1", "action": "end", "who": "alice"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(map[string]any{"who": "alice", "id": "d1", "action": "end"})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encodings differ: %x vs %x", first, again)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{
		"action":      "progress",
		"id":          "d1",
		"host":        "web4",
		"index":       4.5,
		"added_later": true,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var event progressEvent
	if err := Unmarshal(data, &event); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if event.ID != "d1" || event.Host != "web4" || event.Index != 4.5 {
		t.Errorf("decoded %+v", event)
	}
}

func TestTimeKeepsSubsecondPrecision(t *testing.T) {
	type stamped struct {
		At time.Time `cbor:"at"`
	}
	at := time.Date(2026, 3, 14, 9, 30, 0, 123456789, time.UTC)
	data, err := Marshal(stamped{At: at})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded stamped
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.At.Equal(at) {
		t.Errorf("At = %v, want %v", decoded.At, at)
	}
}

func TestAnyMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": "x"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded["outer"].(map[string]any)
	if !ok {
		t.Fatalf("outer decoded as %T, want map[string]any", decoded["outer"])
	}
	if outer["inner"] != "x" {
		t.Errorf("inner = %v", outer["inner"])
	}
}

func TestStreamRoundTrip(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, id := range []string{"d1", "d2"} {
		if err := encoder.Encode(progressEvent{Action: "progress", ID: id}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	decoder := NewDecoder(&buffer)
	for _, want := range []string{"d1", "d2"} {
		var event progressEvent
		if err := decoder.Decode(&event); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if event.ID != want {
			t.Errorf("ID = %q, want %q", event.ID, want)
		}
	}
}
