// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"sort"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/clock"
)

// Registry holds the active deploys and their expiry timers. It does
// no locking of its own; Monitor serializes access.
type Registry struct {
	clock     clock.Clock
	ttl       time.Duration
	scheduler Scheduler

	deploys    map[string]*Deploy
	generation uint64
}

// NewRegistry returns an empty registry whose deploys expire after
// ttl without progress. Panics if ttl is not positive or clk or
// scheduler is nil.
func NewRegistry(clk clock.Clock, ttl time.Duration, scheduler Scheduler) *Registry {
	if clk == nil {
		panic("deploy.Registry: clock is required")
	}
	if scheduler == nil {
		panic("deploy.Registry: scheduler is required")
	}
	if ttl <= 0 {
		panic("deploy.Registry: ttl must be positive")
	}
	return &Registry{
		clock:     clk,
		ttl:       ttl,
		scheduler: scheduler,
		deploys:   make(map[string]*Deploy),
	}
}

// Begin installs a new deploy. A live deploy with the same id is
// discarded first, and its timer cancelled; replaced reports whether
// that happened.
func (r *Registry) Begin(request BeginRequest) (replaced bool) {
	if previous, exists := r.deploys[request.ID]; exists {
		previous.expiry.Cancel()
		delete(r.deploys, request.ID)
		replaced = true
	}

	now := r.clock.Now()
	r.generation++
	deploy := &Deploy{
		ID:           request.ID,
		Who:          request.Who,
		Args:         request.Args,
		LogPath:      request.LogPath,
		StartedAt:    now,
		HostCount:    request.HostCount,
		NextQuadrant: 1,
		ExpiresAt:    now.Add(r.ttl),
		token:        Token{ID: request.ID, Generation: r.generation},
	}
	deploy.expiry = r.scheduler.Schedule(r.ttl, deploy.token)
	r.deploys[request.ID] = deploy
	return replaced
}

// Progress records a progress report and pushes the deploy's expiry
// out by a full TTL. It returns copies of the deploy from before and
// after the update; ok is false (and nothing changes) when id is not
// active.
func (r *Registry) Progress(id, host string, index float64) (before, after Deploy, ok bool) {
	deploy, exists := r.deploys[id]
	if !exists {
		return Deploy{}, Deploy{}, false
	}
	before = *deploy

	deploy.ExpiresAt = r.clock.Now().Add(r.ttl)
	deploy.expiry.Reset(r.ttl)
	deploy.LastHost = host
	deploy.LastIndex = index
	deploy.HasProgress = true

	return before, *deploy, true
}

// Remove cancels the deploy's timer and takes it out of the registry.
// ok is false when id is not active, in which case nothing happens.
func (r *Registry) Remove(id string) (removal Removal, ok bool) {
	deploy, exists := r.deploys[id]
	if !exists {
		return Removal{}, false
	}
	deploy.expiry.Cancel()
	delete(r.deploys, id)

	elapsed := r.clock.Now().Sub(deploy.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return Removal{ID: id, Who: deploy.Who, Elapsed: elapsed}, true
}

// Expire reaps the deploy a fired timer was armed for. Tokens from a
// replaced or removed instance are ignored, as are firings that a
// concurrent Progress already pushed past: the reset timer fires again
// at the new deadline.
func (r *Registry) Expire(token Token) (expired Deploy, ok bool) {
	deploy, exists := r.deploys[token.ID]
	if !exists || deploy.token != token {
		return Deploy{}, false
	}
	if r.clock.Now().Before(deploy.ExpiresAt) {
		return Deploy{}, false
	}
	delete(r.deploys, token.ID)
	return *deploy, true
}

// Get returns a copy of the active deploy with the given id.
func (r *Registry) Get(id string) (Deploy, bool) {
	deploy, exists := r.deploys[id]
	if !exists {
		return Deploy{}, false
	}
	return *deploy, true
}

// Len returns the number of active deploys.
func (r *Registry) Len() int {
	return len(r.deploys)
}

// Snapshot returns copies of all active deploys, oldest first. Deploys
// that started at the same instant are ordered by id.
func (r *Registry) Snapshot() []Deploy {
	snapshot := make([]Deploy, 0, len(r.deploys))
	for _, deploy := range r.deploys {
		snapshot = append(snapshot, *deploy)
	}
	sortByStart(snapshot)
	return snapshot
}

// live returns the registry-owned record for id, for in-package
// callers that need to advance throttle state.
func (r *Registry) live(id string) *Deploy {
	return r.deploys[id]
}

func sortByStart(deploys []Deploy) {
	sort.Slice(deploys, func(i, j int) bool {
		if !deploys[i].StartedAt.Equal(deploys[j].StartedAt) {
			return deploys[i].StartedAt.Before(deploys[j].StartedAt)
		}
		return deploys[i].ID < deploys[j].ID
	})
}
