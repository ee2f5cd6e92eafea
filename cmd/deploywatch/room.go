// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/messaging"
)

// roomWatcher applies /sync results for the deploy room to the
// monitor: topic changes become the prior topic, and status commands
// are answered through replies.
type roomWatcher struct {
	monitor *deploy.Monitor
	replies deploy.Sink
	userID  string
	tag     string
	logger  *slog.Logger
}

// seed applies the initial /sync. Only the topic is taken from it;
// messages sent while deploywatch was down are not answered.
func (w *roomWatcher) seed(response *messaging.SyncResponse) {
	room, ok := response.Rooms.Join[w.monitor.Channel()]
	if !ok {
		return
	}
	for _, event := range room.State.Events {
		w.observeTopic(event)
	}
	for _, event := range room.Timeline.Events {
		w.observeTopic(event)
	}
}

// handleSync is the service.SyncHandler for incremental syncs.
func (w *roomWatcher) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	room, ok := response.Rooms.Join[w.monitor.Channel()]
	if !ok {
		return
	}
	// A limited timeline may have skipped a topic change; the state
	// section carries the result.
	for _, event := range room.State.Events {
		w.observeTopic(event)
	}
	for _, event := range room.Timeline.Events {
		w.handleEvent(event)
	}
}

func (w *roomWatcher) handleEvent(event messaging.Event) {
	switch event.Type {
	case messaging.EventTypeTopic:
		w.observeTopic(event)
	case messaging.EventTypeMessage:
		w.handleMessage(event)
	}
}

func (w *roomWatcher) observeTopic(event messaging.Event) {
	if !event.IsState(messaging.EventTypeTopic) {
		return
	}
	w.monitor.ObserveTopic(w.monitor.Channel(), event.ContentString("topic"))
}

func (w *roomWatcher) handleMessage(event messaging.Event) {
	if event.Sender == w.userID {
		return
	}
	msgtype := event.ContentString("msgtype")
	if msgtype != messaging.MsgTypeText {
		return
	}
	if !isStatusCommand(event.ContentString("body"), w.tag) {
		return
	}

	requester := messaging.Localpart(event.Sender)
	w.logger.Info("status requested", "sender", event.Sender)
	for _, line := range w.monitor.Status(w.monitor.Channel(), requester) {
		w.replies.SendMessage(w.monitor.Channel(), line)
	}
}

// isStatusCommand accepts "status", "!status" and "tag: status" (also
// "tag, status" and "tag status"), ignoring case and surrounding
// space.
func isStatusCommand(body, tag string) bool {
	body = strings.ToLower(strings.TrimSpace(body))
	if body == "status" || body == "!status" {
		return true
	}
	rest, ok := strings.CutPrefix(body, strings.ToLower(tag))
	if !ok {
		return false
	}
	trimmed := strings.TrimLeft(rest, ":, ")
	return trimmed != rest && trimmed == "status"
}
