// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/deploywatch/lib/announce"
	"github.com/bureau-foundation/deploywatch/lib/clock"
	"github.com/bureau-foundation/deploywatch/lib/config"
	"github.com/bureau-foundation/deploywatch/lib/deploy"
	"github.com/bureau-foundation/deploywatch/lib/logging"
	"github.com/bureau-foundation/deploywatch/lib/process"
	"github.com/bureau-foundation/deploywatch/lib/service"
	"github.com/bureau-foundation/deploywatch/lib/version"
	"github.com/bureau-foundation/deploywatch/messaging"
)

// socketMode lets members of the socket directory's group report
// deploys.
const socketMode = 0o660

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("deploywatch", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to deploywatch.yaml (default: $DEPLOYWATCH_CONFIG)")
	flagSet.StringVar(&logLevel, "log-level", "", "override log.level from the config file (debug, info, warn, error)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		process.Usage(err, "run 'deploywatch --help' for usage")
	}
	if showVersion {
		fmt.Printf("deploywatch %s\n", version.Full())
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		process.Usage(fmt.Errorf("unexpected argument: %s", args[0]), "deploywatch takes no arguments")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer logger.Sync()

	location, err := cfg.Location()
	if err != nil {
		return err
	}
	accessToken, err := cfg.ReadAccessToken()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		UserAgent:     version.UserAgent("deploywatch"),
		Logger:        logger.Logger,
	})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(cfg.Matrix.UserID, accessToken)
	if err != nil {
		return err
	}

	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("checking access token: %w", err)
	}
	if userID != cfg.Matrix.UserID {
		return fmt.Errorf("access token belongs to %s, not the configured %s", userID, cfg.Matrix.UserID)
	}

	roomID, err := session.JoinRoom(ctx, cfg.Channel)
	if err != nil {
		return fmt.Errorf("joining %s: %w", cfg.Channel, err)
	}
	logger.Info("joined deploy room", "channel", cfg.Channel, "room_id", roomID)

	filter := messaging.RoomFilter(roomID, messaging.EventTypeMessage, messaging.EventTypeTopic)
	sinceToken, initial, err := service.InitialSync(ctx, session, filter)
	if err != nil {
		return err
	}

	realClock := clock.Real()
	outbox := announce.NewOutbox(announce.OutboxConfig{
		Poster:      session,
		MessageType: cfg.Matrix.MessageType,
		Interval:    cfg.Matrix.SendInterval,
		Burst:       cfg.Matrix.SendBurst,
		Clock:       realClock,
		Logger:      logger.With("component", "outbox"),
	})
	monitor := deploy.NewMonitor(deploy.Config{
		Channel:  roomID,
		TTL:      cfg.DeployTTL,
		Tag:      cfg.Matrix.Tag,
		MinHosts: cfg.MinHosts,
		Location: location,
		Clock:    realClock,
		Sink:     outbox,
		Logger:   logger.With("component", "monitor"),
	})
	watcher := &roomWatcher{
		monitor: monitor,
		replies: outbox,
		userID:  userID,
		tag:     cfg.Matrix.Tag,
		logger:  logger.With("component", "room"),
	}
	watcher.seed(initial)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return outbox.Run(groupCtx)
	})
	group.Go(func() error {
		return service.RunSyncLoop(groupCtx, session, service.SyncConfig{Filter: filter},
			sinceToken, watcher.handleSync, realClock, logger.Logger)
	})

	if cfg.Listen.HTTP != "" {
		httpServer := service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.Listen.HTTP,
			Handler: newListener(monitor, logger.Logger),
			Logger:  logger.Logger,
		})
		group.Go(func() error {
			return httpServer.Serve(groupCtx)
		})
	}

	if cfg.Listen.Socket != "" {
		socketServer := service.NewSocketServer(cfg.Listen.Socket, socketMode, logger.Logger)
		(&socketActions{monitor: monitor}).register(socketServer)
		group.Go(func() error {
			return socketServer.Serve(groupCtx)
		})
	}

	logger.Info("deploywatch running",
		"version", version.Info(),
		"room_id", roomID,
		"http", cfg.Listen.HTTP,
		"socket", cfg.Listen.Socket,
		"deploy_ttl", cfg.DeployTTL,
	)

	err = group.Wait()
	logger.Info("deploywatch stopped")
	return err
}

// loadConfig reads the file given by --config, falling back to
// DEPLOYWATCH_CONFIG.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
