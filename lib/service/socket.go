// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/deploywatch/lib/codec"
	"github.com/bureau-foundation/deploywatch/lib/netutil"
)

// ActionFunc handles one socket request. raw is the whole CBOR
// request, "action" field included; the handler decodes its own
// fields from it.
//
// A nil result produces {ok: true}; anything else is encoded into the
// response's data field. An error produces {ok: false, error: ...}.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope of every socket reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Socket I/O limits. Requests are single lifecycle events; the
// largest reply is a status listing.
const (
	readTimeout    = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 64 << 10
)

// SocketServer serves the CBOR request-response protocol on a Unix
// socket, one request per connection. Register actions with Handle
// before Serve.
type SocketServer struct {
	socketPath string
	mode       os.FileMode
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	ready  chan struct{}
	active sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath
// and chmod the socket to mode (0600 when zero).
func NewSocketServer(socketPath string, mode os.FileMode, logger *slog.Logger) *SocketServer {
	if socketPath == "" {
		panic("service.SocketServer: socket path is required")
	}
	if logger == nil {
		panic("service.SocketServer: logger is required")
	}
	if mode == 0 {
		mode = 0o600
	}
	return &SocketServer{
		socketPath: socketPath,
		mode:       mode,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Handle registers handler for action. Panics on a duplicate.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Ready is closed once the socket accepts connections.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight requests. A stale socket file is replaced; the socket is
// removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()
	if err := os.Chmod(s.socketPath, s.mode); err != nil {
		return fmt.Errorf("setting mode of %s: %w", s.socketPath, err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	s.logger.Info("socket server stopped")
	return nil
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// CBOR values are self-delimiting, so one Decode reads exactly
	// one request.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if netutil.IsExpectedCloseError(err) {
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}
	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

func (s *SocketServer) writeError(conn net.Conn, message string) {
	s.write(conn, Response{OK: false, Error: message})
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}
	s.write(conn, response)
}

// write failures are only logged: the connection closes either way.
func (s *SocketServer) write(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil && !netutil.IsExpectedCloseError(err) {
		s.logger.Debug("failed to write response", "error", err)
	}
}
