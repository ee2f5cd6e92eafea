// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/clock"
)

// Sink receives the monitor's announcements. Both methods are called
// with the monitor's mutex held and must not block.
type Sink interface {
	SendMessage(channel, text string)
	SetTopic(channel, text string)
}

// Config holds the parameters for NewMonitor.
type Config struct {
	// Channel is the one channel the monitor announces to and answers
	// status queries for. Required.
	Channel string

	// TTL is how long a deploy may go without a progress report
	// before it is reaped. Required.
	TTL time.Duration

	// Tag names the monitor in the topics it sets; see TopicMarker.
	// Required.
	Tag string

	// MinHosts is passed to the Throttle. Zero means DefaultMinHosts.
	MinHosts int

	// Location is the time zone for rendered start times. Nil means
	// UTC.
	Location *time.Location

	// Clock drives expiry timers and start times. Required.
	Clock clock.Clock

	// Sink receives messages and topic changes. Required.
	Sink Sink

	// Logger is required.
	Logger *slog.Logger
}

// Monitor tracks active deploys for one channel. All methods are safe
// for concurrent use.
type Monitor struct {
	channel  string
	tag      string
	location *time.Location
	clock    clock.Clock
	sink     Sink
	logger   *slog.Logger
	throttle Throttle

	mu         sync.Mutex
	registry   *Registry
	priorTopic string
}

// NewMonitor creates a Monitor. Panics if a required Config field is
// missing: a monitor without a channel or sink cannot do anything
// useful, and that is a wiring bug rather than a runtime condition.
func NewMonitor(config Config) *Monitor {
	if config.Channel == "" {
		panic("deploy.Monitor: Channel is required")
	}
	if config.Tag == "" {
		panic("deploy.Monitor: Tag is required")
	}
	if config.Clock == nil {
		panic("deploy.Monitor: Clock is required")
	}
	if config.Sink == nil {
		panic("deploy.Monitor: Sink is required")
	}
	if config.Logger == nil {
		panic("deploy.Monitor: Logger is required")
	}

	location := config.Location
	if location == nil {
		location = time.UTC
	}

	monitor := &Monitor{
		channel:  config.Channel,
		tag:      config.Tag,
		location: location,
		clock:    config.Clock,
		sink:     config.Sink,
		logger:   config.Logger,
		throttle: Throttle{MinHosts: config.MinHosts},
	}
	monitor.registry = NewRegistry(config.Clock, config.TTL, &ClockScheduler{
		Clock: config.Clock,
		Fire:  monitor.expire,
	})
	return monitor
}

// Channel returns the channel the monitor serves.
func (m *Monitor) Channel() string { return m.channel }

// Begin starts tracking a deploy, announces it and updates the topic.
// A deploy already running under the same id is replaced without any
// announcement of its own.
func (m *Monitor) Begin(request BeginRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if replaced := m.registry.Begin(request); replaced {
		m.logger.Warn("deploy replaced by new begin with same id", "id", request.ID)
	}
	m.logger.Info("deploy began",
		"id", request.ID,
		"who", request.Who,
		"hosts", request.HostCount,
	)

	m.sink.SendMessage(m.channel, fmt.Sprintf("%s started push \"%s\" with args %s",
		request.Who, request.ID, request.Args))
	m.sink.SetTopic(m.channel, m.topicLocked())
}

// Progress records that the deploy identified by id has reached host
// number index. Unknown ids are ignored.
func (m *Monitor) Progress(id, host string, index float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, after, ok := m.registry.Progress(id, host, index)
	if !ok {
		m.logger.Debug("progress for unknown deploy", "id", id)
		return
	}
	m.logger.Debug("deploy progress", "id", id, "host", host, "index", index)

	percent, announce := m.throttle.Advance(m.registry.live(id))
	if !announce {
		return
	}
	m.sink.SendMessage(m.channel, fmt.Sprintf("%s's push \"%s\" is %d%% complete.",
		after.Who, id, percent))
}

// End removes a finished deploy, announces how long it took and
// updates the topic. It reports whether id was active.
func (m *Monitor) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removal, ok := m.registry.Remove(id)
	if !ok {
		m.logger.Debug("end for unknown deploy", "id", id)
		return false
	}
	m.logger.Info("deploy ended", "id", id, "elapsed", removal.Elapsed)

	m.sink.SendMessage(m.channel, fmt.Sprintf("%s's push \"%s\" complete. Took %s",
		removal.Who, id, FormatSpan(removal.Elapsed)))
	m.sink.SetTopic(m.channel, m.topicLocked())
	return true
}

// Abort removes a failed deploy, announces the reason and updates the
// topic. It reports whether id was active.
func (m *Monitor) Abort(id, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removal, ok := m.registry.Remove(id)
	if !ok {
		m.logger.Debug("abort for unknown deploy", "id", id)
		return false
	}
	m.logger.Info("deploy aborted", "id", id, "reason", reason, "elapsed", removal.Elapsed)

	m.sink.SendMessage(m.channel, fmt.Sprintf("%s's push \"%s\" aborted (%s)",
		removal.Who, id, reason))
	m.sink.SetTopic(m.channel, m.topicLocked())
	return true
}

// Status returns the status lines for a query made in channel by
// requester. Queries from any other channel get nil.
func (m *Monitor) Status(channel, requester string) []string {
	if channel != m.channel {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return StatusLines(m.registry.Snapshot(), requester, m.location)
}

// Report returns the status lines for requester together with the
// deploys they describe, taken from one snapshot.
func (m *Monitor) Report(requester string) StatusReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	deploys := m.registry.Snapshot()
	return StatusReply{
		Lines:   StatusLines(deploys, requester, m.location),
		Deploys: Entries(deploys),
	}
}

// ObserveTopic remembers a topic seen on the channel so it can be
// restored once no deploys are running. Topics on other channels and
// topics the monitor set itself are ignored.
func (m *Monitor) ObserveTopic(channel, topic string) {
	if channel != m.channel || isOwnTopic(topic, m.tag) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorTopic = topic
}

// Snapshot returns the active deploys ordered by start time.
func (m *Monitor) Snapshot() []Deploy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Snapshot()
}

// expire is the expiry timer callback. Reaping is silent: the deploy
// drops out of status, and the topic is left until the next begin,
// end or abort recomputes it.
func (m *Monitor) expire(token Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired, ok := m.registry.Expire(token)
	if !ok {
		return
	}
	m.logger.Info("deploy expired without progress",
		"id", expired.ID,
		"who", expired.Who,
		"started_at", expired.StartedAt,
	)
}

func (m *Monitor) topicLocked() string {
	return DeriveTopic(m.registry.Snapshot(), m.priorTopic, m.tag, m.location)
}
