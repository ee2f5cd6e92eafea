// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for deploywatch
// packages.
//
// [SocketPath] returns a socket path under a short directory in /tmp.
// Unix domain socket paths are limited to 108 bytes, and t.TempDir()
// under a deeply nested TMPDIR can exceed that.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests waiting on another goroutine fail instead of
// hanging. They are the only real wall-clock timeouts in the test
// suite; everything else runs on lib/clock's fake clock.
//
// [StartServer] runs anything with a Serve(ctx) method and a Ready
// channel for the duration of a test.
//
// All helpers call t.Fatalf on failure.
package testutil
