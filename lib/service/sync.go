// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/clock"
	"github.com/bureau-foundation/deploywatch/messaging"
)

// Syncer is the part of messaging.Session the sync loop needs.
type Syncer interface {
	Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)
}

// idleConnectionCloser is implemented by *messaging.DirectSession.
type idleConnectionCloser interface {
	CloseIdleConnections()
}

// SyncConfig configures RunSyncLoop.
type SyncConfig struct {
	// Filter is the inline JSON filter sent with every request.
	Filter string

	// Timeout is the long-poll wait in milliseconds. Default 30000.
	Timeout int

	// MaxBackoff caps the retry delay after failed polls. Backoff
	// starts at one second and doubles. Default 30s.
	MaxBackoff time.Duration
}

// SyncHandler receives each /sync response. The next poll starts
// when it returns.
type SyncHandler func(ctx context.Context, response *messaging.SyncResponse)

// InitialSync performs the first /sync, which returns current state
// immediately. It returns the next_batch token for RunSyncLoop and
// the response for seeding state.
func InitialSync(ctx context.Context, session Syncer, filter string) (string, *messaging.SyncResponse, error) {
	response, err := session.Sync(ctx, messaging.SyncOptions{Filter: filter})
	if err != nil {
		return "", nil, fmt.Errorf("initial sync: %w", err)
	}
	return response.NextBatch, response, nil
}

// RunSyncLoop long-polls /sync from sinceToken and hands each response
// to handler until ctx is cancelled. Failed polls are retried with
// exponential backoff timed on clk; it returns nil on cancellation.
func RunSyncLoop(ctx context.Context, session Syncer, config SyncConfig, sinceToken string, handler SyncHandler, clk clock.Clock, logger *slog.Logger) error {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		response, err := session.Sync(ctx, messaging.SyncOptions{
			Since:      sinceToken,
			Timeout:    timeout,
			SetTimeout: true,
			Filter:     config.Filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			if closer, ok := session.(idleConnectionCloser); ok {
				closer.CloseIdleConnections()
			}
			select {
			case <-ctx.Done():
				return nil
			case <-clk.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch
		handler(ctx, response)
	}
}
