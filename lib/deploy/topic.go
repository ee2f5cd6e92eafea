// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"strings"
	"time"
)

// NoPriorTopic is the topic set when no deploys are running and no
// externally set topic has been observed to restore.
const NoPriorTopic = "no active pushes (the previous topic is unknown)"

// clockFormat renders start times as hour:minute.
const clockFormat = "15:04"

// TopicMarker is the prefix of every topic the monitor sets. Topics
// carrying it are never remembered as the topic to restore.
func TopicMarker(tag string) string {
	return "<" + tag + ">"
}

// DeriveTopic computes the channel topic for the given active deploys.
// With no deploys it restores prior, or NoPriorTopic when prior is
// empty. Start times are rendered in loc (UTC when nil).
func DeriveTopic(deploys []Deploy, prior, tag string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	switch len(deploys) {
	case 0:
		if prior != "" {
			return prior
		}
		return NoPriorTopic
	case 1:
		only := deploys[0]
		return fmt.Sprintf("%s %s started push at %s with args: %s",
			TopicMarker(tag), only.Who, only.StartedAt.In(loc).Format(clockFormat), only.Args)
	default:
		earliest := deploys[0].StartedAt
		for _, deploy := range deploys[1:] {
			if deploy.StartedAt.Before(earliest) {
				earliest = deploy.StartedAt
			}
		}
		return fmt.Sprintf("%s %d pushes running (earliest started at %s). check \"status\".",
			TopicMarker(tag), len(deploys), earliest.In(loc).Format(clockFormat))
	}
}

// isOwnTopic reports whether topic was set by a monitor using tag.
func isOwnTopic(topic, tag string) bool {
	return strings.HasPrefix(topic, TopicMarker(tag))
}
