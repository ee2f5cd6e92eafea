// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy tracks in-flight deploys reported by external agents
// and turns their lifecycle into channel announcements.
//
// A [Monitor] owns a [Registry] of active deploys keyed by id. Each
// deploy carries a renewable time-to-live: every progress report pushes
// the expiry out, and a deploy that goes quiet for the whole TTL is
// reaped silently. Four lifecycle entry points drive the monitor:
//
//   - Begin creates (or silently replaces) a deploy, announces it and
//     recomputes the channel topic.
//   - Progress records the host currently being deployed to and may
//     announce a 25/50/75/100% milestone via the [Throttle].
//   - End and Abort remove the deploy, announce the outcome and
//     recompute the topic.
//
// Announcements go to a [Sink]. Topic text comes from [DeriveTopic]
// and status lines from [StatusLines]; both are pure functions of a
// registry snapshot.
//
// All entry points, and the expiry callback, serialize on the
// monitor's mutex, and each event's state change, decision and sink
// writes happen under one critical section. Sink implementations must
// therefore return quickly (see lib/announce for the queued Matrix
// sink).
package deploy
