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

// mockRunnableHub is a test double for RunnableHub.
type mockRunnableHub struct {
	runCount atomic.Int32
}

func (m *mockRunnableHub) Run(ctx context.Context) {
	m.runCount.Add(1)
	<-ctx.Done()
}

func (m *mockRunnableHub) RunCount() int {
	return int(m.runCount.Load())
}

func TestEventHubServiceInterface(t *testing.T) {
	var _ suture.Service = (*EventHubService)(nil)
}

func TestNewEventHubService(t *testing.T) {
	hub := &mockRunnableHub{}
	svc := NewEventHubService(hub)

	if svc == nil {
		t.Fatal("NewEventHubService returned nil")
	}
	if svc.hub != hub {
		t.Error("hub not assigned correctly")
	}
	if svc.name != "event-hub" {
		t.Errorf("expected name 'event-hub', got %q", svc.name)
	}
}

func TestEventHubServiceServe(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		hub := &mockRunnableHub{}
		svc := NewEventHubService(hub)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after context cancellation")
		}

		if hub.RunCount() != 1 {
			t.Errorf("expected 1 run, got %d", hub.RunCount())
		}
	})

	t.Run("returns context error on deadline", func(t *testing.T) {
		hub := &mockRunnableHub{}
		svc := NewEventHubService(hub)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := svc.Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
	})
}

func TestEventHubServiceString(t *testing.T) {
	hub := &mockRunnableHub{}
	svc := NewEventHubService(hub)

	if svc.String() != "event-hub" {
		t.Errorf("expected 'event-hub', got %q", svc.String())
	}
}

func TestEventHubServiceWithSupervisor(t *testing.T) {
	hub := &mockRunnableHub{}
	svc := NewEventHubService(hub)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := sup.ServeBackground(ctx)

	var started bool
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		if hub.RunCount() >= 1 {
			started = true
			break
		}
	}
	if !started {
		t.Error("hub Run was not called")
	}

	cancel()
	<-errCh
}
