// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
)

// RunnableHub interface matches *broadcaster.Hub's Run method.
//
// This interface allows the EventHubService to work with the hub without
// importing internal/broadcaster, avoiding an import cycle.
//
// Satisfied by *broadcaster.Hub from internal/broadcaster/hub.go:
//   - Run(ctx context.Context)
type RunnableHub interface {
	Run(ctx context.Context)
}

// EventHubService wraps the alert/source lifecycle event hub (internal/
// broadcaster.Hub) as a supervised service.
//
// Hub.Run already blocks until ctx is canceled and closes every subscriber
// channel on the way out, so this wrapper just delegates and provides a
// name for logging.
//
// Example usage:
//
//	hub := broadcaster.New(broadcaster.Config{})
//	svc := services.NewEventHubService(hub)
//	tree.AddMessagingService(svc)
type EventHubService struct {
	hub  RunnableHub
	name string
}

// NewEventHubService creates a new event hub service wrapper.
func NewEventHubService(hub RunnableHub) *EventHubService {
	return &EventHubService{
		hub:  hub,
		name: "event-hub",
	}
}

// Serve implements suture.Service.
//
// This method delegates to hub.Run, which:
//  1. Delivers events to subscribers until ctx is canceled
//  2. Closes every remaining subscriber channel on shutdown
//
// Run has no error return, so Serve reports ctx.Err() once it returns.
func (w *EventHubService) Serve(ctx context.Context) error {
	w.hub.Run(ctx)
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (w *EventHubService) String() string {
	return w.name
}
