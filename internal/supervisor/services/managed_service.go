// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"fmt"
)

// StartStopManager interface matches internal/scheduler.Scheduler's
// Start/Stop lifecycle — Start spawns goroutines and returns immediately,
// Stop blocks until they exit. The scheduler starts and stops its own
// janitor internally, so the janitor has no separate supervised service.
//
// Satisfied by *scheduler.Scheduler.Start(ctx) error / Stop().
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop()
}

// ManagedService wraps a Start/Stop-lifecycle component (the scheduler) as
// a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the component
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
//
// The wrapped component handles its own goroutines internally via
// sync.WaitGroup, so this wrapper simply orchestrates the lifecycle
// transitions.
type ManagedService struct {
	manager StartStopManager
	name    string
}

// NewManagedService creates a new service wrapper around a Start/Stop
// component, tagging it with name for supervisor logging.
//
// Example usage:
//
//	svc := services.NewManagedService(scheduler, "scheduler")
//	tree.AddMessagingService(svc)
func NewManagedService(manager StartStopManager, name string) *ManagedService {
	return &ManagedService{
		manager: manager,
		name:    name,
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Starts the component (which spawns its internal goroutines)
//  2. Blocks until the context is canceled
//  3. Stops the component (which waits for its goroutines to complete)
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *ManagedService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	s.manager.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *ManagedService) String() string {
	return s.name
}
