// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package services provides suture.Service wrappers for the CAP alert
pipeline's long-running components.

This package adapts existing application components to the suture v4 supervision
model, translating various lifecycle patterns (Start/Stop, Run, ListenAndServe)
into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (Start/Stop to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Event Hub (EventHubService):
  - Wraps internal/broadcaster.Hub's Run method
  - Delivers alert/source lifecycle events to websocket subscribers
  - Closes every subscriber channel on shutdown

Managed Service (ManagedService):
  - Wraps any Start(ctx) error / Stop() component
  - Used for internal/scheduler.Scheduler, which starts and stops its own
    internal/janitor.Janitor internally — no separate janitor service

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/tomtom215/capalert/internal/supervisor"
	    "github.com/tomtom215/capalert/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, hub *broadcaster.Hub, sched *scheduler.Scheduler) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 10s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 10*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Event hub
	    hubSvc := services.NewEventHubService(hub)
	    tree.AddMessagingService(hubSvc)

	    // Scheduler (starts/stops the janitor internally)
	    schedSvc := services.NewManagedService(sched, "scheduler")
	    tree.AddMessagingService(schedSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles three common lifecycle patterns:

Start/Stop Pattern:

	type StartStopManager interface {
	    Start(ctx context.Context) error
	    Stop()
	}

	// Wrapped as (ManagedService):
	func (s *ManagedService) Serve(ctx context.Context) error {
	    if err := s.manager.Start(ctx); err != nil {
	        return fmt.Errorf("%s start failed: %w", s.name, err)
	    }
	    <-ctx.Done()
	    s.manager.Stop()
	    return ctx.Err()
	}

Run Pattern:

	type RunnableHub interface {
	    Run(ctx context.Context) // Blocks until ctx is canceled
	}

	// Wrapped as (EventHubService):
	func (w *EventHubService) Serve(ctx context.Context) error {
	    w.hub.Run(ctx)
	    return ctx.Err()
	}

ListenAndServe Pattern:

	type HTTPServer interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as (HTTPServerService, simplified):
	func (h *HTTPServerService) Serve(ctx context.Context) error {
	    go h.server.ListenAndServe() // a startup error ends Serve early
	    <-ctx.Done()
	    if err := h.server.Shutdown(shutdownCtx); err != nil {
	        return err
	    }
	    return ctx.Err()
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

Example error handling:

	func (s *ManagedService) Serve(ctx context.Context) error {
	    if err := s.manager.Start(ctx); err != nil {
	        // Transient error - supervisor should restart
	        return fmt.Errorf("%s start failed: %w", s.name, err)
	    }

	    <-ctx.Done()

	    s.manager.Stop()

	    return ctx.Err()  // Clean shutdown, no restart
	}

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Testing

Services can be tested with mock components:

	type MockServer struct {
	    started  bool
	    shutdown bool
	    stop     chan struct{}
	}

	func (m *MockServer) ListenAndServe() error {
	    m.started = true
	    <-m.stop // Block until Shutdown
	    return http.ErrServerClosed
	}

	func (m *MockServer) Shutdown(ctx context.Context) error {
	    m.shutdown = true
	    close(m.stop)
	    return nil
	}

	func TestHTTPService(t *testing.T) {
	    mock := &MockServer{stop: make(chan struct{})}
	    svc := services.NewHTTPServerService(mock, time.Second)

	    ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	    defer cancel()

	    svc.Serve(ctx)

	    if !mock.started { t.Error("server not started") }
	    if !mock.shutdown { t.Error("server not shutdown") }
	}

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/broadcaster: event hub implementation
  - internal/scheduler: fetch-cycle orchestration
*/
package services
