// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockManager simulates the scheduler for testing. It matches the
// StartStopManager interface.
type mockManager struct {
	started    atomic.Bool
	stopped    atomic.Bool
	startError error
}

func (m *mockManager) Start(ctx context.Context) error {
	if m.startError != nil {
		return m.startError
	}
	m.started.Store(true)
	return nil
}

func (m *mockManager) Stop() {
	m.stopped.Store(true)
}

func TestManagedServiceInterface(t *testing.T) {
	t.Run("implements suture.Service", func(t *testing.T) {
		var _ suture.Service = (*ManagedService)(nil)
	})
}

func TestManagedService(t *testing.T) {
	t.Run("starts underlying manager", func(t *testing.T) {
		mgr := &mockManager{}
		svc := NewManagedService(mgr, "scheduler")

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		var started bool
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mgr.started.Load() {
				started = true
				break
			}
		}
		if !started {
			t.Error("manager was not started")
		}

		<-done
	})

	t.Run("stops manager on context cancellation", func(t *testing.T) {
		mgr := &mockManager{}
		svc := NewManagedService(mgr, "scheduler")

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mgr.started.Load() {
				break
			}
		}
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("service did not stop in time")
		}

		if !mgr.stopped.Load() {
			t.Error("manager was not stopped")
		}
	})

	t.Run("propagates start error for restart", func(t *testing.T) {
		expectedErr := errors.New("registry unavailable")
		mgr := &mockManager{startError: expectedErr}
		svc := NewManagedService(mgr, "scheduler")

		err := svc.Serve(context.Background())
		if err == nil {
			t.Error("expected error to be propagated")
		}
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected wrapped error, got %v", err)
		}
		if mgr.started.Load() {
			t.Error("manager should not be started on error")
		}
	})

	t.Run("String returns the given name", func(t *testing.T) {
		svc := NewManagedService(&mockManager{}, "scheduler")
		if svc.String() != "scheduler" {
			t.Errorf("expected 'scheduler', got %q", svc.String())
		}
	})
}
