// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broadcaster

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/capalert/internal/models"
)

func startHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	h := New(cfg)
	ctx, cancel := context.WithCancel(t.Context())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func TestPublishAlertNew_DeliversToSubscriber(t *testing.T) {
	t.Parallel()
	h := startHub(t, Config{})

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	alert := models.Alert{ID: "a1", Identifier: "NWS-1"}
	h.PublishAlertNew(alert)

	select {
	case ev := <-events:
		if ev.Topic != TopicAlertNew {
			t.Errorf("Topic = %q, want %q", ev.Topic, TopicAlertNew)
		}
		got, ok := ev.Data.(models.Alert)
		if !ok || got.ID != "a1" {
			t.Errorf("Data = %#v, want alert a1", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscriber_OrderingPerTopic(t *testing.T) {
	t.Parallel()
	h := New(Config{})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go h.Run(ctx)

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	alert := models.Alert{ID: "a1"}
	h.PublishAlertNew(alert)
	h.PublishAlertUpdate(alert)
	h.PublishAlertExpire(alert)

	want := []string{TopicAlertNew, TopicAlertUpdate, TopicAlertExpire}
	for i, topic := range want {
		select {
		case ev := <-events:
			if ev.Topic != topic {
				t.Errorf("event %d topic = %q, want %q", i, ev.Topic, topic)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSubscriber_DropsOldestOnOverflowWithoutDisconnecting(t *testing.T) {
	t.Parallel()
	h := New(Config{SubscriberBufferSize: 2})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go h.Run(ctx)

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	// Publish three events into a buffer of 2 without ever draining; the
	// oldest ("a1") must be the one dropped, leaving a2 then a3.
	h.PublishAlertNew(models.Alert{ID: "a1"})
	time.Sleep(50 * time.Millisecond)
	h.PublishAlertNew(models.Alert{ID: "a2"})
	time.Sleep(50 * time.Millisecond)
	h.PublishAlertNew(models.Alert{ID: "a3"})
	time.Sleep(50 * time.Millisecond)

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			got = append(got, ev.Data.(models.Alert).ID)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	if len(got) != 2 || got[0] != "a2" || got[1] != "a3" {
		t.Errorf("got %v, want [a2 a3] (oldest dropped, subscriber still connected)", got)
	}

	// The subscriber channel must still be open, not torn down.
	select {
	case _, ok := <-events:
		if !ok {
			t.Fatal("subscriber channel was closed, want it to remain connected after an overflow drop")
		}
	default:
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	t.Parallel()
	h := New(Config{})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go h.Run(ctx)

	events, unsubscribe := h.Subscribe()
	if h.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", h.SubscriberCount())
	}
	unsubscribe()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected channel to be closed after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0 after unsubscribe", h.SubscriberCount())
	}
}

func TestPublishSourceEvents(t *testing.T) {
	t.Parallel()
	h := New(Config{})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go h.Run(ctx)

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	src := models.Source{ID: "s1", Name: "Test Source"}
	h.PublishSourceNew(src)
	h.PublishSourceUpdate(src)
	h.PublishSourceDelete(src)

	want := []string{TopicSourceNew, TopicSourceUpdate, TopicSourceDelete}
	for i, topic := range want {
		select {
		case ev := <-events:
			if ev.Topic != topic {
				t.Errorf("event %d topic = %q, want %q", i, ev.Topic, topic)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}
