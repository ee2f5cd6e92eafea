// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"time"

	"github.com/bureau-foundation/deploywatch/lib/clock"
)

// Token names the deploy instance an expiry timer was armed for. The
// generation distinguishes a deploy from a later one that reuses its
// id, so a timer belonging to a removed instance can never reap its
// successor.
type Token struct {
	ID         string
	Generation uint64
}

// Handle controls one pending expiry timer.
type Handle interface {
	// Cancel stops the timer. Cancelling a fired or already cancelled
	// timer does nothing.
	Cancel()

	// Reset moves the timer's deadline to delay from now without
	// firing it.
	Reset(delay time.Duration)
}

// Scheduler arms one-shot expiry timers.
type Scheduler interface {
	Schedule(delay time.Duration, token Token) Handle
}

// ClockScheduler is a Scheduler on top of a clock.Clock. Fire is
// called with the timer's token when a timer expires; with a real
// clock that happens on the timer's own goroutine.
type ClockScheduler struct {
	Clock clock.Clock
	Fire  func(Token)
}

// Schedule arms a timer that reports token to s.Fire after delay.
func (s *ClockScheduler) Schedule(delay time.Duration, token Token) Handle {
	return timerHandle{timer: s.Clock.AfterFunc(delay, func() { s.Fire(token) })}
}

type timerHandle struct {
	timer *clock.Timer
}

func (h timerHandle) Cancel() { h.timer.Stop() }

func (h timerHandle) Reset(delay time.Duration) { h.timer.Reset(delay) }
