// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by deploywatch.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc arranges for f to be called once d has elapsed and
	// returns a Timer that can cancel or reschedule the call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending one-shot callback created by AfterFunc.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop cancels the pending call. It reports whether the call was
// still pending; stopping a fired or already stopped timer is a
// no-op that returns false.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset moves the deadline to d from now without running the
// callback. If the timer already fired or was stopped it is armed
// again. Reset reports whether the timer was pending before the call.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
