// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package announce delivers deploy announcements to Matrix.
//
// [Outbox] implements deploy.Sink. The monitor calls the sink while
// holding its own lock, so the Outbox only enqueues; a single Run
// goroutine drains the queue in order, paced by a token bucket so a
// burst of deploy events does not trip the homeserver's rate limits.
// A topic change that is overtaken by a newer one for the same room
// before it is sent is skipped.
package announce
