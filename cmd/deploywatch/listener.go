// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bureau-foundation/deploywatch/lib/deploy"
)

// maxFormBodySize bounds a POSTed event. Every field is a short
// string.
const maxFormBodySize = 64 << 10

// newListener returns the HTTP handler deploy scripts report to.
// Event endpoints take form values from the query string or an
// urlencoded POST body and answer 204 No Content, or 400 with a
// one-line reason when a field is missing or malformed. Events for
// unknown ids are accepted and ignored.
func newListener(monitor *deploy.Monitor, logger *slog.Logger) http.Handler {
	listener := &eventListener{monitor: monitor, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/deploy/begin", listener.event("begin", listener.begin))
	mux.Handle("/deploy/progress", listener.event("progress", listener.progress))
	mux.Handle("/deploy/end", listener.event("end", listener.end))
	mux.Handle("/deploy/abort", listener.event("abort", listener.abort))
	mux.HandleFunc("GET /deploy/status", listener.status)
	return mux
}

type eventListener struct {
	monitor *deploy.Monitor
	logger  *slog.Logger
}

// formError is a client error reported as 400.
type formError struct {
	message string
}

func (e *formError) Error() string { return e.message }

func (l *eventListener) event(name string, apply func(url.Values) error) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodGet && request.Method != http.MethodPost {
			writer.Header().Set("Allow", "GET, POST")
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		request.Body = http.MaxBytesReader(writer, request.Body, maxFormBodySize)
		if err := request.ParseForm(); err != nil {
			http.Error(writer, "malformed form: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := apply(request.Form); err != nil {
			l.logger.Warn("rejected deploy event",
				"event", name,
				"remote_addr", request.RemoteAddr,
				"error", err,
			)
			http.Error(writer, err.Error(), http.StatusBadRequest)
			return
		}
		writer.WriteHeader(http.StatusNoContent)
	})
}

func (l *eventListener) begin(form url.Values) error {
	id, err := requireID(form)
	if err != nil {
		return err
	}
	who, err := requireField(form, "who")
	if err != nil {
		return err
	}
	args, err := requireField(form, "args")
	if err != nil {
		return err
	}
	logPath, err := requireField(form, "log_path")
	if err != nil {
		return err
	}
	countText, err := requireField(form, "count")
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(strings.TrimSpace(countText))
	if err != nil || count < 0 {
		return &formError{fmt.Sprintf("count must be a non-negative integer, got %q", countText)}
	}

	l.monitor.Begin(deploy.BeginRequest{
		ID:        id,
		Who:       who,
		Args:      args,
		LogPath:   logPath,
		HostCount: count,
	})
	return nil
}

func (l *eventListener) progress(form url.Values) error {
	id, err := requireID(form)
	if err != nil {
		return err
	}
	host, err := requireField(form, "host")
	if err != nil {
		return err
	}
	indexText, err := requireField(form, "index")
	if err != nil {
		return err
	}
	index, err := parseIndex(indexText)
	if err != nil {
		return err
	}
	l.monitor.Progress(id, host, index)
	return nil
}

func (l *eventListener) end(form url.Values) error {
	id, err := requireID(form)
	if err != nil {
		return err
	}
	l.monitor.End(id)
	return nil
}

func (l *eventListener) abort(form url.Values) error {
	id, err := requireID(form)
	if err != nil {
		return err
	}
	reason, err := requireField(form, "reason")
	if err != nil {
		return err
	}
	l.monitor.Abort(id, reason)
	return nil
}

// status answers with the same lines a room member would get, one
// per line. The optional requester value prefixes each line.
func (l *eventListener) status(writer http.ResponseWriter, request *http.Request) {
	lines := l.monitor.Status(l.monitor.Channel(), request.URL.Query().Get("requester"))
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, line := range lines {
		fmt.Fprintln(writer, line)
	}
}

// requireField returns the first value of name. The field must be
// present but may be empty.
func requireField(form url.Values, name string) (string, error) {
	if !form.Has(name) {
		return "", &formError{"missing required field: " + name}
	}
	return form.Get(name), nil
}

func requireID(form url.Values) (string, error) {
	id, err := requireField(form, "id")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &formError{"id must not be empty"}
	}
	return id, nil
}

// parseIndex accepts any finite number. Indices may be fractional
// when a script reports progress within a host.
func parseIndex(text string) (float64, error) {
	index, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(index) || math.IsInf(index, 0) {
		return 0, &formError{fmt.Sprintf("index must be a finite number, got %q", text)}
	}
	return index, nil
}
