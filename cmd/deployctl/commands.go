// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/lib/service"
)

// environment is what a command runs against.
type environment struct {
	client *service.ServiceClient
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

type commandFunc func(ctx context.Context, env *environment, args []string) error

var commands = map[string]commandFunc{
	"begin":    runBegin,
	"progress": runProgress,
	"end":      runEnd,
	"abort":    runAbort,
	"status":   runStatus,
}

// call sends one request with callTimeout applied.
func (env *environment) call(ctx context.Context, action string, request map[string]any, result any) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return env.client.Call(ctx, action, request, result)
}

// parseFlags parses a command's flags. It returns errHelpShown after
// --help so the command exits 0 without doing anything.
func parseFlags(env *environment, flagSet *pflag.FlagSet, args []string) error {
	flagSet.SetOutput(env.stderr)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelpShown
		}
		return &usageError{err}
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return usagef("%s: unexpected argument %q", flagSet.Name(), extra[0])
	}
	return nil
}

var errHelpShown = errors.New("help shown")

func ignoreHelp(err error) error {
	if errors.Is(err, errHelpShown) {
		return nil
	}
	return err
}

func runBegin(ctx context.Context, env *environment, args []string) error {
	var (
		id      string
		who     string
		argsArg string
		logPath string
		hosts   int
	)
	flagSet := pflag.NewFlagSet("begin", pflag.ContinueOnError)
	flagSet.StringVar(&id, "id", "", "deploy id (default: a new UUID)")
	flagSet.StringVar(&who, "who", os.Getenv("USER"), "who started the deploy")
	flagSet.StringVar(&argsArg, "args", "", "the deploy's arguments, shown in announcements")
	flagSet.StringVar(&logPath, "log-path", "", "where the deploy log can be read")
	flagSet.IntVar(&hosts, "hosts", -1, "number of hosts the deploy will touch (required)")
	if err := parseFlags(env, flagSet, args); err != nil {
		return ignoreHelp(err)
	}
	if hosts < 0 {
		return usagef("begin: --hosts is required and must not be negative")
	}
	if who == "" {
		return usagef("begin: --who is required when $USER is unset")
	}
	if id == "" {
		id = uuid.NewString()
	}

	err := env.call(ctx, deploy.ActionBegin, map[string]any{
		"id":         id,
		"who":        who,
		"args":       argsArg,
		"log_path":   logPath,
		"host_count": hosts,
	}, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, id)
	return nil
}

func runProgress(ctx context.Context, env *environment, args []string) error {
	var (
		id    string
		host  string
		index float64
	)
	flagSet := pflag.NewFlagSet("progress", pflag.ContinueOnError)
	flagSet.StringVar(&id, "id", "", "deploy id (required)")
	flagSet.StringVar(&host, "host", "", "host the deploy has reached (required)")
	flagSet.Float64Var(&index, "index", 0, "position of the host in the deploy, counting from 1")
	if err := parseFlags(env, flagSet, args); err != nil {
		return ignoreHelp(err)
	}
	if id == "" || host == "" {
		return usagef("progress: --id and --host are required")
	}
	if !flagSet.Changed("index") {
		return usagef("progress: --index is required")
	}

	return env.call(ctx, deploy.ActionProgress, map[string]any{
		"id":    id,
		"host":  host,
		"index": index,
	}, nil)
}

func runEnd(ctx context.Context, env *environment, args []string) error {
	var id string
	flagSet := pflag.NewFlagSet("end", pflag.ContinueOnError)
	flagSet.StringVar(&id, "id", "", "deploy id (required)")
	if err := parseFlags(env, flagSet, args); err != nil {
		return ignoreHelp(err)
	}
	if id == "" {
		return usagef("end: --id is required")
	}

	var reply deploy.RemoveReply
	if err := env.call(ctx, deploy.ActionEnd, map[string]any{"id": id}, &reply); err != nil {
		return err
	}
	warnIfNotFound(env, id, reply)
	return nil
}

func runAbort(ctx context.Context, env *environment, args []string) error {
	var id, reason string
	flagSet := pflag.NewFlagSet("abort", pflag.ContinueOnError)
	flagSet.StringVar(&id, "id", "", "deploy id (required)")
	flagSet.StringVar(&reason, "reason", "", "why the deploy failed (required)")
	if err := parseFlags(env, flagSet, args); err != nil {
		return ignoreHelp(err)
	}
	if id == "" || reason == "" {
		return usagef("abort: --id and --reason are required")
	}

	var reply deploy.RemoveReply
	if err := env.call(ctx, deploy.ActionAbort, map[string]any{"id": id, "reason": reason}, &reply); err != nil {
		return err
	}
	warnIfNotFound(env, id, reply)
	return nil
}

// warnIfNotFound notes a removal of an unknown deploy. It is not an
// error: the deploy may have expired, or deploywatch restarted.
func warnIfNotFound(env *environment, id string, reply deploy.RemoveReply) {
	if !reply.Found {
		fmt.Fprintf(env.stderr, "deployctl: deploy %q was not active\n", id)
	}
}

func runStatus(ctx context.Context, env *environment, args []string) error {
	var (
		requester string
		lines     bool
		asJSON    bool
	)
	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flagSet.StringVar(&requester, "requester", "", "name to address the status lines to (with --lines)")
	flagSet.BoolVar(&lines, "lines", false, "print the lines deploywatch would say in the room")
	flagSet.BoolVar(&asJSON, "json", false, "print the deploys as JSON")
	if err := parseFlags(env, flagSet, args); err != nil {
		return ignoreHelp(err)
	}
	if lines && asJSON {
		return usagef("status: --lines and --json are mutually exclusive")
	}

	var reply deploy.StatusReply
	if err := env.call(ctx, deploy.ActionStatus, map[string]any{"requester": requester}, &reply); err != nil {
		return err
	}

	switch {
	case asJSON:
		encoder := json.NewEncoder(env.stdout)
		encoder.SetIndent("", "  ")
		deploys := reply.Deploys
		if deploys == nil {
			deploys = []deploy.Entry{}
		}
		return encoder.Encode(deploys)
	case lines:
		for _, line := range reply.Lines {
			fmt.Fprintln(env.stdout, line)
		}
		return nil
	default:
		_, err := io.WriteString(env.stdout, renderEntries(reply.Deploys, env.now(), terminalWidth(env.stdout), newStyles(env.stdout)))
		return err
	}
}
