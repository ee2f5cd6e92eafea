// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Time stands still until
// Advance is called.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.added = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests. It is safe for
// concurrent use, but callbacks must not call Advance themselves.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	// sequence orders waiters that share a deadline by registration.
	sequence uint64
	// added is broadcast whenever a waiter is registered.
	added *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	order    uint64

	// Exactly one of channel and callback is set.
	channel  chan time.Time
	callback func()

	// pending is true while the waiter sits in FakeClock.waiters.
	pending bool
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock has been
// advanced by at least d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.addLocked(&fakeWaiter{deadline: c.current.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f to run during the Advance call that moves
// the clock past now+d. A non-positive d still waits for the next
// Advance (even Advance(0)) so that f never runs while the caller of
// AfterFunc may be holding its own locks.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	waiter := &fakeWaiter{deadline: c.current.Add(d), callback: f}
	c.addLocked(waiter)

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if !waiter.pending {
				return false
			}
			c.removeLocked(waiter)
			return true
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasPending := waiter.pending
			if wasPending {
				c.removeLocked(waiter)
			}
			if d < 0 {
				d = 0
			}
			waiter.deadline = c.current.Add(d)
			c.addLocked(waiter)
			return wasPending
		},
	}
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is at or before the new time, earliest first. Callbacks
// run synchronously in the calling goroutine with no clock lock held,
// so they may register, stop or reset timers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		waiter := c.popExpired(target)
		if waiter == nil {
			return
		}
		if waiter.callback != nil {
			waiter.callback()
			continue
		}
		select {
		case waiter.channel <- target:
		default:
		}
	}
}

// Pending returns the number of timers and After channels that have
// not fired and were not stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// WaitForTimers blocks until at least n timers or After channels are
// pending. Tests call it before Advance when the code under test arms
// its timer from another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.added.Wait()
	}
}

// popExpired removes and returns the earliest waiter due at or before
// target, or nil. Popping one at a time lets a callback stop another
// waiter that expired in the same Advance.
func (c *FakeClock) popExpired(target time.Time) *fakeWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) == 0 {
		return nil
	}
	sort.Slice(c.waiters, func(i, j int) bool {
		a, b := c.waiters[i], c.waiters[j]
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.order < b.order
	})
	first := c.waiters[0]
	if first.deadline.After(target) {
		return nil
	}
	c.removeLocked(first)
	return first
}

func (c *FakeClock) addLocked(waiter *fakeWaiter) {
	c.sequence++
	waiter.order = c.sequence
	waiter.pending = true
	c.waiters = append(c.waiters, waiter)
	c.added.Broadcast()
}

func (c *FakeClock) removeLocked(waiter *fakeWaiter) {
	for index, candidate := range c.waiters {
		if candidate == waiter {
			c.waiters = append(c.waiters[:index], c.waiters[index+1:]...)
			break
		}
	}
	waiter.pending = false
}
