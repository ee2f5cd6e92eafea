// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestServiceClientCall(t *testing.T) {
	server, socketPath := newEchoServer(t)
	startSocketServer(t, server)
	client := NewServiceClient(socketPath)

	var result echoResponse
	if err := client.Call(context.Background(), "echo", map[string]any{"text": "abc"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Echo != "abc" {
		t.Errorf("echo = %q, want abc", result.Echo)
	}

	// A nil result discards the data.
	if err := client.Call(context.Background(), "echo", nil, nil); err != nil {
		t.Fatalf("Call with nil result: %v", err)
	}
}

func TestServiceClientServiceError(t *testing.T) {
	server, socketPath := newEchoServer(t)
	startSocketServer(t, server)

	err := NewServiceClient(socketPath).Call(context.Background(), "fail", nil, nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if serviceErr.Action != "fail" || serviceErr.Message != "deploy not found" {
		t.Errorf("ServiceError = %+v", serviceErr)
	}
}

func TestServiceClientActionFieldWins(t *testing.T) {
	server, socketPath := newEchoServer(t)
	startSocketServer(t, server)

	// A caller-supplied "action" key is overwritten by the action
	// argument.
	var result echoResponse
	err := NewServiceClient(socketPath).Call(context.Background(), "echo",
		map[string]any{"action": "fail", "text": "kept"}, &result)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Echo != "kept" {
		t.Errorf("echo = %q", result.Echo)
	}
}

func TestServiceClientNoServer(t *testing.T) {
	client := NewServiceClient(filepath.Join(t.TempDir(), "absent.sock"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Call(ctx, "ping", nil, nil)
	if err == nil {
		t.Fatal("Call succeeded without a server")
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		t.Errorf("transport failure reported as ServiceError: %v", err)
	}
}
