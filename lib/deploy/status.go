// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"strings"
	"time"
)

// NoActivePushes is the status reply when nothing is running.
const NoActivePushes = "there are currently no active pushes."

// StatusLines renders one line per deploy, in the order given. Callers
// pass a Registry.Snapshot, which is already ordered by start time.
// requester, when non-empty, prefixes each line ("alice, ...").
func StatusLines(deploys []Deploy, requester string, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	prefix := ""
	if requester != "" {
		prefix = requester + ", "
	}
	if len(deploys) == 0 {
		return []string{prefix + NoActivePushes}
	}

	lines := make([]string, 0, len(deploys))
	for _, deploy := range deploys {
		var line strings.Builder
		line.WriteString(prefix)
		fmt.Fprintf(&line, "%s started push \"%s\"", deploy.Who, deploy.ID)
		if deploy.HasProgress {
			if percent, ok := deploy.Percent(); ok {
				fmt.Fprintf(&line, " (which is on %s -- %d%% done)", deploy.LastHost, percent)
			} else {
				fmt.Fprintf(&line, " (which is on %s)", deploy.LastHost)
			}
		}
		fmt.Fprintf(&line, " at %s with args \"%s\". log: %s",
			deploy.StartedAt.In(loc).Format(clockFormat), deploy.Args, deploy.LogPath)
		lines = append(lines, line.String())
	}
	return lines
}

// Entry is the wire form of an active deploy, returned by the status
// action of the service socket.
type Entry struct {
	ID          string    `cbor:"id" json:"id"`
	Who         string    `cbor:"who" json:"who"`
	Args        string    `cbor:"args" json:"args"`
	LogPath     string    `cbor:"log_path" json:"log_path"`
	StartedAt   time.Time `cbor:"started_at" json:"started_at"`
	HostCount   int       `cbor:"host_count" json:"host_count"`
	LastHost    string    `cbor:"last_host,omitempty" json:"last_host,omitempty"`
	LastIndex   float64   `cbor:"last_index,omitempty" json:"last_index,omitempty"`
	HasProgress bool      `cbor:"has_progress" json:"has_progress"`
	ExpiresAt   time.Time `cbor:"expires_at" json:"expires_at"`
}

// Percent mirrors Deploy.Percent for the wire form.
func (e Entry) Percent() (percent int, ok bool) {
	if !e.HasProgress || e.HostCount <= 0 {
		return 0, false
	}
	return int(e.LastIndex / float64(e.HostCount) * 100), true
}

// Entries converts deploys to their wire form, preserving order.
func Entries(deploys []Deploy) []Entry {
	entries := make([]Entry, len(deploys))
	for i, deploy := range deploys {
		entries[i] = Entry{
			ID:          deploy.ID,
			Who:         deploy.Who,
			Args:        deploy.Args,
			LogPath:     deploy.LogPath,
			StartedAt:   deploy.StartedAt,
			HostCount:   deploy.HostCount,
			LastHost:    deploy.LastHost,
			LastIndex:   deploy.LastIndex,
			HasProgress: deploy.HasProgress,
			ExpiresAt:   deploy.ExpiresAt,
		}
	}
	return entries
}
