// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"testing"
	"time"
)

// Server is implemented by service.SocketServer and service.HTTPServer.
type Server interface {
	Serve(ctx context.Context) error
	Ready() <-chan struct{}
}

// StartServer runs server.Serve until test cleanup and returns once
// the server is ready. Serve must return nil on cancellation.
func StartServer(t *testing.T, server Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	select {
	case <-server.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("Serve returned before ready: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		if err := RequireReceive(t, done, 5*time.Second, "waiting for Serve to return"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
}
