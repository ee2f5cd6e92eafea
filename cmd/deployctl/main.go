// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/deploywatch/lib/config"
	"github.com/bureau-foundation/deploywatch/lib/process"
	"github.com/bureau-foundation/deploywatch/lib/service"
	"github.com/bureau-foundation/deploywatch/lib/version"
)

// callTimeout bounds one request to deploywatch. A deploy script
// must not hang because the monitor is down.
const callTimeout = 10 * time.Second

const usageText = `deployctl reports deploys to deploywatch.

Usage:
  deployctl [--socket PATH] <command> [flags]

Commands:
  begin      start tracking a deploy and print its id
  progress   report the host a deploy has reached
  end        report that a deploy finished
  abort      report that a deploy failed
  status     list the deploys in flight

Run 'deployctl <command> --help' for a command's flags.
`

// usageError is a command-line mistake; main exits with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err == nil {
		return
	}
	var usage *usageError
	if errors.As(err, &usage) {
		process.Usage(usage.err, "run 'deployctl --help' for usage")
	}
	process.Fatal(err)
}

// run executes one deployctl invocation. Output for scripts goes to
// stdout, help to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		socketPath  string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("deployctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&socketPath, "socket", defaultSocketPath(), "deploywatch service socket ($DEPLOYWATCH_LISTEN_SOCKET)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fmt.Fprintln(stderr, "\nGlobal flags:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &usageError{err}
	}
	if showVersion {
		fmt.Fprintf(stdout, "deployctl %s\n", version.Info())
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		return usagef("no command given")
	}
	command, ok := commands[rest[0]]
	if !ok {
		return usagef("unknown command %q", rest[0])
	}

	env := &environment{
		client: service.NewServiceClient(socketPath),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
	return command(ctx, env, rest[1:])
}

// defaultSocketPath mirrors the daemon's listen.socket default.
func defaultSocketPath() string {
	if path := os.Getenv(config.EnvPrefix + "LISTEN_SOCKET"); path != "" {
		return path
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = "/run"
	}
	return filepath.Join(runtimeDir, "deploywatch.sock")
}
