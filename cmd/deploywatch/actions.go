// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/deploywatch/lib/codec"
	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/lib/service"
)

// socketActions serves the lifecycle events and status queries sent
// by deployctl over the service socket.
type socketActions struct {
	monitor *deploy.Monitor
}

func (a *socketActions) register(server *service.SocketServer) {
	server.Handle(deploy.ActionBegin, a.handleBegin)
	server.Handle(deploy.ActionProgress, a.handleProgress)
	server.Handle(deploy.ActionEnd, a.handleEnd)
	server.Handle(deploy.ActionAbort, a.handleAbort)
	server.Handle(deploy.ActionStatus, a.handleStatus)
}

type beginRequest struct {
	ID        string `cbor:"id"`
	Who       string `cbor:"who"`
	Args      string `cbor:"args"`
	LogPath   string `cbor:"log_path"`
	HostCount *int   `cbor:"host_count"`
}

type progressRequest struct {
	ID    string   `cbor:"id"`
	Host  string   `cbor:"host"`
	Index *float64 `cbor:"index"`
}

type removeRequest struct {
	ID     string `cbor:"id"`
	Reason string `cbor:"reason"`
}

type statusRequest struct {
	Requester string `cbor:"requester"`
}

func (a *socketActions) handleBegin(ctx context.Context, raw []byte) (any, error) {
	var request beginRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, errors.New("missing required field: id")
	}
	if request.Who == "" {
		return nil, errors.New("missing required field: who")
	}
	if request.HostCount == nil {
		return nil, errors.New("missing required field: host_count")
	}
	if *request.HostCount < 0 {
		return nil, fmt.Errorf("host_count must not be negative, got %d", *request.HostCount)
	}

	a.monitor.Begin(deploy.BeginRequest{
		ID:        request.ID,
		Who:       request.Who,
		Args:      request.Args,
		LogPath:   request.LogPath,
		HostCount: *request.HostCount,
	})
	return nil, nil
}

func (a *socketActions) handleProgress(ctx context.Context, raw []byte) (any, error) {
	var request progressRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, errors.New("missing required field: id")
	}
	if request.Index == nil {
		return nil, errors.New("missing required field: index")
	}
	if math.IsNaN(*request.Index) || math.IsInf(*request.Index, 0) {
		return nil, fmt.Errorf("index must be finite, got %v", *request.Index)
	}

	a.monitor.Progress(request.ID, request.Host, *request.Index)
	return nil, nil
}

func (a *socketActions) handleEnd(ctx context.Context, raw []byte) (any, error) {
	var request removeRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, errors.New("missing required field: id")
	}
	return deploy.RemoveReply{Found: a.monitor.End(request.ID)}, nil
}

func (a *socketActions) handleAbort(ctx context.Context, raw []byte) (any, error) {
	var request removeRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, errors.New("missing required field: id")
	}
	return deploy.RemoveReply{Found: a.monitor.Abort(request.ID, request.Reason)}, nil
}

func (a *socketActions) handleStatus(ctx context.Context, raw []byte) (any, error) {
	var request statusRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return a.monitor.Report(request.Requester), nil
}
