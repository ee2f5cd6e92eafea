// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source and one-shot timers.
//
// Production code takes a [Clock] instead of calling time.Now,
// time.After or time.AfterFunc directly. [Real] delegates to the time
// package. [Fake] returns a [FakeClock] whose time only moves when the
// test calls Advance, which makes TTL expiry deterministic:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	monitor := deploy.NewMonitor(deploy.Config{Clock: c, ...})
//	monitor.Begin(...)
//	c.Advance(10 * time.Minute) // fires the expiry callback inline
//
// AfterFunc callbacks registered on a FakeClock run synchronously in
// the goroutine that calls Advance, in deadline order.
package clock
