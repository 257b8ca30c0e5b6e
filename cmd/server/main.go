// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package main is the entry point for the Meetrics server.
//
// Meetrics syncs past meetings from the Zoom report API into DuckDB,
// aggregates per-person attendance, and exposes a REST API for meeting
// queries, manual headcounts, and poll results. Sessions older than the
// retention window are archived and purged daily.
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables plus config file (Koanf v2)
//  2. Database: DuckDB with schema migration
//  3. Zoom client: server-to-server OAuth with circuit breaker
//  4. Sync manager: periodic meeting ingestion
//  5. Retention manager: daily archive-and-purge scheduler
//  6. HTTP server: REST API under /api/v1
//
// All long-running components run under a suture supervisor tree and are
// restarted on failure. SIGINT and SIGTERM trigger graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meetrics/meetrics/internal/api"
	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/database"
	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/retention"
	"github.com/meetrics/meetrics/internal/supervisor"
	"github.com/meetrics/meetrics/internal/sync"
	"github.com/meetrics/meetrics/internal/zoom"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("zoom_account", cfg.Zoom.AccountID).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("retention_enabled", cfg.Retention.Enabled).
		Msg("Starting Meetrics")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	tokens := zoom.NewTokenProvider(&cfg.Zoom)
	zoomClient := zoom.NewCircuitBreakerClient(zoom.NewClient(&cfg.Zoom, tokens))

	syncManager := sync.NewManager(db, zoomClient, &cfg.Sync)
	retentionManager := retention.NewManager(db, &cfg.Retention)

	handler := api.NewHandler(db, syncManager, retentionManager, zoomClient, cfg)
	routes := api.NewRouter(handler, &cfg.API).Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := api.NewServer(addr, routes, &cfg.Server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs an slog.Logger, bridged from zerolog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddWorkerService(supervisor.NewWorkerService("sync-manager", syncManager))
	tree.AddWorkerService(supervisor.NewWorkerService("retention-manager", retentionManager))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.Timeout))

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", addr).Msg("Server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree exited with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree exited unexpectedly")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
