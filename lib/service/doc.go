// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the serving scaffolding of the deploywatch
// daemon:
//
//   - HTTPServer: a TCP HTTP listener with graceful shutdown, carrying
//     the form-encoded /deploy/* endpoints deploy scripts call.
//   - SocketServer and ServiceClient: a one-request-per-connection CBOR
//     protocol on a Unix socket, spoken by deployctl.
//   - InitialSync and RunSyncLoop: the Matrix /sync long-poll with
//     backoff, feeding room events to the daemon.
//
// Each server's Serve blocks until its context is cancelled, so the
// daemon runs them side by side under one errgroup.
//
// The socket has no caller authentication; its file mode is the
// access control.
package service
