// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import "time"

// Deploy is one tracked deploy. The registry owns the live record;
// everything outside the package works with copies.
type Deploy struct {
	ID      string
	Who     string
	Args    string
	LogPath string

	// StartedAt and HostCount are fixed when the deploy begins.
	StartedAt time.Time
	HostCount int

	// LastHost and LastIndex come from the most recent progress
	// report. Both are meaningful only when HasProgress is set.
	LastHost    string
	LastIndex   float64
	HasProgress bool

	// NextQuadrant is the next milestone eligible for announcement:
	// 1 for 25% through 4 for 100%. It only grows; past 4 nothing
	// more is announced.
	NextQuadrant int

	// ExpiresAt is when the deploy will be reaped if no further
	// progress arrives.
	ExpiresAt time.Time

	token  Token
	expiry Handle
}

// Percent is LastIndex as a whole percentage of HostCount, truncated
// toward zero. ok is false before the first progress report or when
// the deploy has no hosts.
func (d Deploy) Percent() (percent int, ok bool) {
	if !d.HasProgress || d.HostCount <= 0 {
		return 0, false
	}
	return int(d.LastIndex / float64(d.HostCount) * 100), true
}

// BeginRequest carries the fields of a begin event.
type BeginRequest struct {
	ID        string
	Who       string
	Args      string
	LogPath   string
	HostCount int
}

// Removal describes a deploy taken out of the registry by End or
// Abort.
type Removal struct {
	ID      string
	Who     string
	Elapsed time.Duration
}
