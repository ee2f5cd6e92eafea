// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/clock"
	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/lib/logging"
)

const testRoom = "!deploys:example.org"

var epoch = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// recordingSink captures sink writes as "message ROOM: TEXT" and
// "topic ROOM: TEXT".
type recordingSink struct {
	mu     sync.Mutex
	writes []string
}

func (s *recordingSink) SendMessage(channel, text string) {
	s.record("message", channel, text)
}

func (s *recordingSink) SetTopic(channel, text string) {
	s.record("topic", channel, text)
}

func (s *recordingSink) record(kind, channel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, fmt.Sprintf("%s %s: %s", kind, channel, text))
}

func (s *recordingSink) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	writes := s.writes
	s.writes = nil
	return writes
}

func testMonitor(t *testing.T) (*deploy.Monitor, *recordingSink, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	sink := &recordingSink{}
	monitor := deploy.NewMonitor(deploy.Config{
		Channel: testRoom,
		TTL:     10 * time.Minute,
		Tag:     "deploywatch",
		Clock:   fakeClock,
		Sink:    sink,
		Logger:  logging.Discard(),
	})
	return monitor, sink, fakeClock
}

func expectWrites(t *testing.T, sink *recordingSink, want ...string) {
	t.Helper()
	got := sink.take()
	if len(got) != len(want) {
		t.Fatalf("sink writes = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %q, want %q", i, got[i], want[i])
		}
	}
}
