// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/lib/logging"
	"github.com/bureau-foundation/deploywatch/lib/service"
	"github.com/bureau-foundation/deploywatch/lib/testutil"
)

// startActions serves socketActions for monitor on a temporary socket
// and returns a client for it.
func startActions(t *testing.T, monitor *deploy.Monitor) *service.ServiceClient {
	t.Helper()
	socketPath := testutil.SocketPath(t, "deploywatch.sock")
	server := service.NewSocketServer(socketPath, 0, logging.Discard())
	(&socketActions{monitor: monitor}).register(server)
	testutil.StartServer(t, server)
	return service.NewServiceClient(socketPath)
}

func TestSocketActionsLifecycle(t *testing.T) {
	monitor, sink, fakeClock := testMonitor(t)
	client := startActions(t, monitor)
	ctx := context.Background()

	err := client.Call(ctx, deploy.ActionBegin, map[string]any{
		"id": "d1", "who": "alice", "args": "all", "log_path": "/logs/d1", "host_count": 10,
	}, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	expectWrites(t, sink,
		"message "+testRoom+`: alice started push "d1" with args all`,
		"topic "+testRoom+": <deploywatch> alice started push at 09:30 with args: all",
	)

	// An integer index decodes into the float field.
	if err := client.Call(ctx, deploy.ActionProgress, map[string]any{"id": "d1", "host": "web5", "index": 5}, nil); err != nil {
		t.Fatalf("progress: %v", err)
	}
	expectWrites(t, sink, "message "+testRoom+`: alice's push "d1" is 25% complete.`)

	var report deploy.StatusReply
	if err := client.Call(ctx, deploy.ActionStatus, map[string]any{"requester": "bob"}, &report); err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(report.Lines) != 1 || !strings.HasPrefix(report.Lines[0], `bob, alice started push "d1" (which is on web5 -- 50% done)`) {
		t.Errorf("status lines = %q", report.Lines)
	}
	if len(report.Deploys) != 1 || report.Deploys[0].HostCount != 10 || report.Deploys[0].LastIndex != 5 {
		t.Errorf("status deploys = %+v", report.Deploys)
	}
	if !report.Deploys[0].StartedAt.Equal(epoch) {
		t.Errorf("StartedAt = %s, want %s", report.Deploys[0].StartedAt, epoch)
	}

	fakeClock.Advance(5 * time.Minute)
	var removed deploy.RemoveReply
	if err := client.Call(ctx, deploy.ActionEnd, map[string]any{"id": "d1"}, &removed); err != nil {
		t.Fatalf("end: %v", err)
	}
	if !removed.Found {
		t.Error("end reported d1 as not found")
	}
	expectWrites(t, sink,
		"message "+testRoom+`: alice's push "d1" complete. Took 5 minutes`,
		"topic "+testRoom+": "+deploy.NoPriorTopic,
	)
}

func TestSocketActionsExpiredDeployIsNotFound(t *testing.T) {
	monitor, sink, fakeClock := testMonitor(t)
	client := startActions(t, monitor)
	ctx := context.Background()

	begin := map[string]any{"id": "d1", "who": "alice", "args": "", "log_path": "", "host_count": 0}
	if err := client.Call(ctx, deploy.ActionBegin, begin, nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	sink.take()

	fakeClock.Advance(10 * time.Minute)
	var removed deploy.RemoveReply
	if err := client.Call(ctx, deploy.ActionEnd, map[string]any{"id": "d1"}, &removed); err != nil {
		t.Fatalf("end: %v", err)
	}
	if removed.Found {
		t.Error("end found a deploy that had expired")
	}
	expectWrites(t, sink)
}

func TestSocketActionsEndAndAbort(t *testing.T) {
	monitor, sink, _ := testMonitor(t)
	client := startActions(t, monitor)
	ctx := context.Background()

	begin := map[string]any{"id": "d1", "who": "alice", "args": "", "log_path": "", "host_count": 0}
	if err := client.Call(ctx, deploy.ActionBegin, begin, nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	sink.take()

	var removed deploy.RemoveReply
	if err := client.Call(ctx, deploy.ActionAbort, map[string]any{"id": "d1", "reason": "tests failed"}, &removed); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if !removed.Found {
		t.Error("abort reported d1 as not found")
	}
	writes := sink.take()
	if len(writes) != 2 || writes[0] != "message "+testRoom+`: alice's push "d1" aborted (tests failed)` {
		t.Errorf("writes = %q", writes)
	}

	removed = deploy.RemoveReply{Found: true}
	if err := client.Call(ctx, deploy.ActionEnd, map[string]any{"id": "d1"}, &removed); err != nil {
		t.Fatalf("end: %v", err)
	}
	if removed.Found {
		t.Error("second removal reported d1 as found")
	}
	expectWrites(t, sink)
}

func TestSocketActionsValidation(t *testing.T) {
	monitor, sink, _ := testMonitor(t)
	client := startActions(t, monitor)

	tests := []struct {
		name    string
		action  string
		request map[string]any
		want    string
	}{
		{"begin without id", deploy.ActionBegin, map[string]any{"who": "alice", "host_count": 1}, "missing required field: id"},
		{"begin without who", deploy.ActionBegin, map[string]any{"id": "d1", "host_count": 1}, "missing required field: who"},
		{"begin without host_count", deploy.ActionBegin, map[string]any{"id": "d1", "who": "alice"}, "missing required field: host_count"},
		{"begin with negative host_count", deploy.ActionBegin, map[string]any{"id": "d1", "who": "alice", "host_count": -3}, "must not be negative"},
		{"begin with text host_count", deploy.ActionBegin, map[string]any{"id": "d1", "who": "alice", "host_count": "ten"}, "decoding request"},
		{"progress without index", deploy.ActionProgress, map[string]any{"id": "d1", "host": "h"}, "missing required field: index"},
		{"end without id", deploy.ActionEnd, map[string]any{}, "missing required field: id"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := client.Call(context.Background(), test.action, test.request, nil)
			var serviceErr *service.ServiceError
			if !errors.As(err, &serviceErr) {
				t.Fatalf("error = %v, want *service.ServiceError", err)
			}
			if !strings.Contains(serviceErr.Message, test.want) {
				t.Errorf("message = %q, want it to contain %q", serviceErr.Message, test.want)
			}
		})
	}
	expectWrites(t, sink)
}
