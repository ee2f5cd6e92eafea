// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package announce

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/deploywatch/lib/clock"
	"github.com/bureau-foundation/deploywatch/messaging"
)

// Poster is the part of a Matrix session the Outbox sends through.
// *messaging.DirectSession implements it.
type Poster interface {
	SendMessage(ctx context.Context, roomID string, content messaging.MessageContent) (string, error)
	SetTopic(ctx context.Context, roomID, topic string) (string, error)
}

// DefaultQueueSize is used when OutboxConfig.QueueSize is zero.
const DefaultQueueSize = 256

// OutboxConfig holds the parameters for NewOutbox.
type OutboxConfig struct {
	// Poster delivers the events. Required.
	Poster Poster

	// MessageType is messaging.MsgTypeText or messaging.MsgTypeNotice.
	// Empty means text.
	MessageType string

	// Interval is the steady-state gap between deliveries and Burst
	// the number that may go out back to back. Zero Interval means
	// no pacing; zero Burst means 1.
	Interval time.Duration
	Burst    int

	// QueueSize bounds undelivered items. When full, new items are
	// dropped with a warning.
	QueueSize int

	// Clock paces delivery. Required.
	Clock clock.Clock

	// Logger is required.
	Logger *slog.Logger
}

type itemKind int

const (
	kindMessage itemKind = iota
	kindTopic
)

type item struct {
	kind    itemKind
	channel string
	text    string

	// generation orders topic items for one channel; see superseded.
	generation uint64
}

// Outbox queues messages and topic changes and delivers them from
// Run. SendMessage and SetTopic never block.
type Outbox struct {
	poster      Poster
	messageType string
	limiter     *rate.Limiter
	clock       clock.Clock
	logger      *slog.Logger
	queue       chan item

	mu sync.Mutex
	// topics is the generation of the newest queued topic per channel.
	topics map[string]uint64
}

// NewOutbox creates an Outbox. Nothing is delivered until Run is
// called.
func NewOutbox(config OutboxConfig) *Outbox {
	if config.Poster == nil {
		panic("announce.Outbox: Poster is required")
	}
	if config.Clock == nil {
		panic("announce.Outbox: Clock is required")
	}
	if config.Logger == nil {
		panic("announce.Outbox: Logger is required")
	}

	messageType := config.MessageType
	if messageType == "" {
		messageType = messaging.MsgTypeText
	}
	limit := rate.Inf
	if config.Interval > 0 {
		limit = rate.Every(config.Interval)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Outbox{
		poster:      config.Poster,
		messageType: messageType,
		limiter:     rate.NewLimiter(limit, burst),
		clock:       config.Clock,
		logger:      config.Logger,
		queue:       make(chan item, queueSize),
		topics:      make(map[string]uint64),
	}
}

// SendMessage queues a message to channel.
func (o *Outbox) SendMessage(channel, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enqueueLocked(item{kind: kindMessage, channel: channel, text: text})
}

// SetTopic queues a topic change for channel.
func (o *Outbox) SetTopic(channel, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	generation := o.topics[channel] + 1
	if o.enqueueLocked(item{kind: kindTopic, channel: channel, text: text, generation: generation}) {
		o.topics[channel] = generation
	}
}

// Len returns the number of queued items.
func (o *Outbox) Len() int {
	return len(o.queue)
}

func (o *Outbox) enqueueLocked(queued item) bool {
	select {
	case o.queue <- queued:
		return true
	default:
		o.logger.Warn("announcement queue full, dropping",
			"channel", queued.channel,
			"topic", queued.kind == kindTopic,
			"text", queued.text,
		)
		return false
	}
}

// superseded reports whether a newer topic for the same channel is
// already queued.
func (o *Outbox) superseded(queued item) bool {
	if queued.kind != kindTopic {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return queued.generation < o.topics[queued.channel]
}

// Run delivers queued items until ctx is cancelled. Delivery failures
// are logged and the item is dropped. It returns nil on cancellation.
func (o *Outbox) Run(ctx context.Context) error {
	for {
		var next item
		select {
		case <-ctx.Done():
			o.logShutdown()
			return nil
		case next = <-o.queue:
		}

		if err := o.pace(ctx); err != nil {
			o.logShutdown()
			return nil
		}
		if o.superseded(next) {
			o.logger.Debug("skipping superseded topic", "channel", next.channel)
			continue
		}
		o.deliver(ctx, next)
	}
}

func (o *Outbox) logShutdown() {
	if pending := len(o.queue); pending > 0 {
		o.logger.Warn("announcement outbox stopped with undelivered items", "pending", pending)
	}
}

// pace waits for a limiter token on the outbox clock.
func (o *Outbox) pace(ctx context.Context) error {
	now := o.clock.Now()
	reservation := o.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	return o.sleep(ctx, delay)
}

func (o *Outbox) sleep(ctx context.Context, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.clock.After(delay):
		return nil
	}
}

func (o *Outbox) deliver(ctx context.Context, next item) {
	var err error
	switch next.kind {
	case kindTopic:
		_, err = o.poster.SetTopic(ctx, next.channel, next.text)
	default:
		content := messaging.NewTextMessage(next.text)
		if o.messageType == messaging.MsgTypeNotice {
			content = messaging.NewNoticeMessage(next.text)
		}
		_, err = o.poster.SendMessage(ctx, next.channel, content)
	}
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	o.logger.Error("announcement delivery failed",
		"channel", next.channel,
		"topic", next.kind == kindTopic,
		"error", err,
	)

	// The homeserver's own back-off request overrides local pacing.
	var matrixErr *messaging.MatrixError
	if errors.As(err, &matrixErr) && matrixErr.Code == messaging.ErrCodeLimitExceeded {
		if wait := matrixErr.RetryAfter(); wait > 0 {
			o.logger.Warn("homeserver rate limit, pausing announcements", "retry_after", wait)
			o.sleep(ctx, wait)
		}
	}
}
