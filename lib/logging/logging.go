// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by Options.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// debugFloor is the zap level that slog.LevelDebug arrives at after
// the zapr bridge. The zap core is enabled from here up.
const debugFloor = zapcore.Level(slog.LevelDebug)

// Options configures New.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string

	// Format is FormatJSON or FormatConsole. Empty means JSON.
	Format string

	// Output receives encoded records. Nil means stderr.
	Output io.Writer
}

// Logger is a *slog.Logger together with the zap core behind it.
type Logger struct {
	*slog.Logger

	level *slog.LevelVar
	zap   *zap.Logger
}

// New builds a Logger from options.
func New(options Options) (*Logger, error) {
	level, err := ParseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(options.Format) {
	case FormatJSON, "":
		config := zap.NewProductionEncoderConfig()
		config.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encoder = zapcore.NewJSONEncoder(config)
	case FormatConsole:
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(config)
	default:
		return nil, fmt.Errorf("logging: unknown format %q (expected %s or %s)", options.Format, FormatJSON, FormatConsole)
	}

	output := options.Output
	if output == nil {
		output = os.Stderr
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), zap.NewAtomicLevelAt(debugFloor))
	zapLogger := zap.New(core)

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	handler := &levelGate{
		minimum: levelVar,
		next:    logr.ToSlogHandler(zapr.NewLogger(zapLogger)),
	}
	return &Logger{
		Logger: slog.New(handler),
		level:  levelVar,
		zap:    zapLogger,
	}, nil
}

// SetLevel changes the minimum level of l and every logger derived
// from it.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Sync flushes buffered output. Binaries defer it after New.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	// Syncing a terminal or pipe fails with EINVAL/ENOTTY on some
	// platforms; there is nothing to flush in that case.
	if err != nil && isUnsyncable(err) {
		return nil
	}
	return err
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q (expected debug, info, warn, or error)", name)
	}
}

// Discard returns a logger that drops everything, for tests and
// commands that have nowhere to log.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// levelGate drops records below minimum before they reach next.
type levelGate struct {
	minimum slog.Leveler
	next    slog.Handler
}

func (g *levelGate) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= g.minimum.Level() && g.next.Enabled(ctx, level)
}

func (g *levelGate) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < g.minimum.Level() {
		return nil
	}
	return g.next.Handle(ctx, record)
}

func (g *levelGate) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelGate{minimum: g.minimum, next: g.next.WithAttrs(attrs)}
}

func (g *levelGate) WithGroup(name string) slog.Handler {
	return &levelGate{minimum: g.minimum, next: g.next.WithGroup(name)}
}
