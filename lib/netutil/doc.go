// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small I/O helpers shared by the Matrix client
// and the service socket: bounded reads of HTTP response bodies, and
// classification of errors that mean a peer simply hung up.
package netutil
