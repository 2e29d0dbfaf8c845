// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package main is the entry point for the capalert server application.
//
// capalert ingests Common Alerting Protocol feeds published as RSS, parses
// and normalizes their geometry, and serves the resulting alerts over a
// query API and a live WebSocket feed.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and an
//     optional config file (Koanf v2)
//  2. Database: Initialize DuckDB with spatial, ICU, JSON, and inet
//     extensions for geographic storage and querying
//  3. Source registry: CAP feed sources, seeded from the database
//  4. Feed parser: fetches and normalizes CAP/RSS items per source
//  5. Event hub: delivers alert and source lifecycle events to WebSocket
//     subscribers
//  6. Scheduler: runs one fetch cycle per active source on its own timer,
//     and owns the retention janitor's sweep loop
//  7. HTTP server: the query API, event hub upgrade endpoint, health
//     check, and Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Stops the scheduler (and its janitor) and closes the event hub
//   - Closes the database connection
//
// # Example Usage
//
//	export DB_URI=./capalert.db
//	export HTTP_PORT=8080
//	./capalert-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/capalert/internal/api"
	"github.com/tomtom215/capalert/internal/broadcaster"
	"github.com/tomtom215/capalert/internal/capfeed"
	"github.com/tomtom215/capalert/internal/config"
	"github.com/tomtom215/capalert/internal/janitor"
	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/models"
	"github.com/tomtom215/capalert/internal/scheduler"
	"github.com/tomtom215/capalert/internal/sources"
	"github.com/tomtom215/capalert/internal/store"
	"github.com/tomtom215/capalert/internal/supervisor"
	"github.com/tomtom215/capalert/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting capalert with supervisor tree")
	logging.Info().
		Str("db_uri", cfg.Database.URI).
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	db, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	registry := sources.New(db)

	parserStats := &models.ParserStats{}
	parser := capfeed.NewParser(parserStats)

	hub := broadcaster.New(broadcaster.Config{
		SubscriberBufferSize: cfg.Broadcaster.SubscriberBufferSize,
		NATSEnabled:          cfg.Broadcaster.NATSEnabled,
		NATSURL:              cfg.Broadcaster.NATSURL,
	})

	schedulerStats := &models.SchedulerStats{}
	j := janitor.New(db, hub, schedulerStats, janitor.Config{
		SweepInterval:   cfg.Janitor.SweepInterval,
		RetentionPeriod: cfg.Janitor.RetentionPeriod,
	})

	sched := scheduler.New(registry, parser, db, hub, j, schedulerStats, scheduler.Config{
		BatchSize:            cfg.Scheduler.BatchSize,
		StatsLogEveryNCycles: cfg.Scheduler.StatsLogEveryNCycles,
	})

	handler := api.NewHandler(db, registry, sched, hub, parserStats, schedulerStats)
	chiMiddleware := api.NewChiMiddleware(api.DefaultChiMiddlewareConfig())
	router := api.NewRouter(handler, chiMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(hub),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridges zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Messaging layer: event hub and the scheduler (which starts/stops its
	// own janitor internally).
	tree.AddMessagingService(services.NewEventHubService(hub))
	tree.AddMessagingService(services.NewManagedService(sched, "scheduler"))
	logging.Info().Msg("Event hub and scheduler added to supervisor tree")

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("capalert stopped gracefully")
}
