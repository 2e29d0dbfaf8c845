// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broadcaster

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
)

// Topic names for the six lifecycle events the hub carries.
const (
	TopicAlertNew     = "alert.new"
	TopicAlertUpdate  = "alert.update"
	TopicAlertExpire  = "alert.expire"
	TopicSourceNew    = "source.new"
	TopicSourceUpdate = "source.update"
	TopicSourceDelete = "source.delete"
)

// Event is one message on the bus: a topic name and its canonical JSON-able
// payload (a models.Alert or models.Source value, never a pointer, so a
// publisher's later mutation can't race a subscriber's read).
type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// defaultSubscriberBuffer is used when Config.SubscriberBufferSize <= 0.
const defaultSubscriberBuffer = 64

// subscriber is one registered receiver. Its outbound channel is bounded;
// once full, deliver drops the oldest queued event rather than the newest
// or the subscriber itself.
type subscriber struct {
	id   uint64
	ch   chan Event
	once sync.Once
}

// deliver returns true if the buffer was full and its oldest event had to
// be dropped to make room.
func (s *subscriber) deliver(ev Event) bool {
	select {
	case s.ch <- ev:
		return false
	default:
	}
	// Buffer full: discard the oldest queued event, then push the new one.
	// Both steps are best-effort non-blocking — if a concurrent reader
	// drained the channel between the two selects, the second send still
	// succeeds without blocking.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
	return true
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Config bundles the Hub's tunables, mirroring internal/config.BroadcasterConfig.
type Config struct {
	SubscriberBufferSize int

	// NATSEnabled, when true, also forwards every event to NATSURL via the
	// optional Watermill/NATS bridge (build tag "nats"; see nats.go).
	NATSEnabled      bool
	NATSURL          string
	NATSSubjectPrefix string
}

// Hub is the in-process event bus. It satisfies scheduler.Broadcaster and
// is also driven directly by internal/api for the source.* topics.
type Hub struct {
	subBufferSize int

	mu          sync.RWMutex
	subscribers map[*subscriber]bool
	nextID      uint64

	broadcast chan Event

	wg   sync.WaitGroup
	done chan struct{}
}

// New constructs a Hub. Run must be called to start
// delivering events; Publish is safe to call beforehand, events simply
// queue on the internal broadcast channel.
func New(cfg Config) *Hub {
	bufSize := cfg.SubscriberBufferSize
	if bufSize <= 0 {
		bufSize = defaultSubscriberBuffer
	}
	return &Hub{
		subBufferSize: bufSize,
		subscribers:   make(map[*subscriber]bool),
		broadcast:     make(chan Event, 1024),
		done:          make(chan struct{}),
	}
}

// Subscribe registers a new receiver and returns its event channel plus an
// Unsubscribe func. Callers (e.g. the websocket bridge) must drain the
// channel until it is closed by Unsubscribe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	h.nextID++
	sub := &subscriber{id: h.nextID, ch: make(chan Event, h.subBufferSize)}
	h.subscribers[sub] = true
	h.mu.Unlock()
	metrics.BroadcasterSubscribers.Inc()

	logging.Debug().Uint64("subscriberId", sub.id).Msg("broadcaster: subscriber registered")

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			_, present := h.subscribers[sub]
			delete(h.subscribers, sub)
			h.mu.Unlock()
			sub.close()
			if present {
				metrics.BroadcasterSubscribers.Dec()
			}
			logging.Debug().Uint64("subscriberId", sub.id).Msg("broadcaster: subscriber removed")
		})
	}
	return sub.ch, unsubscribe
}

// Run delivers events until ctx is canceled, then closes every remaining
// subscriber channel and returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			logging.Info().Msg("broadcaster: stopped")
			return
		case ev := <-h.broadcast:
			h.deliverToAll(ev)
		}
	}
}

// Stopped reports whether Run has returned.
func (h *Hub) Stopped() <-chan struct{} { return h.done }

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		sub.close()
		delete(h.subscribers, sub)
		metrics.BroadcasterSubscribers.Dec()
	}
}

// deliverToAll fans ev out to every subscriber in deterministic (id) order,
// mirroring the priority-sorted delivery the websocket hub this package is
// descended from uses for reproducible tests.
func (h *Hub) deliverToAll(ev Event) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, sub := range subs {
		if dropped := sub.deliver(ev); dropped {
			metrics.BroadcasterEventsDropped.WithLabelValues(ev.Topic).Inc()
		}
	}
}

// publish queues ev for delivery. The hub's own intake buffer is large and
// non-blocking; if it is ever full (only possible if Run has never been
// started), the event is dropped and logged rather than blocking the
// caller — a scheduler cycle must never stall on a slow bus.
func (h *Hub) publish(topic string, data interface{}) {
	select {
	case h.broadcast <- Event{Topic: topic, Data: data}:
		metrics.BroadcasterEventsPublished.WithLabelValues(topic).Inc()
	default:
		logging.Warn().Str("topic", topic).Msg("broadcaster: intake buffer full, dropping event")
	}
}

// SubscriberCount reports the number of currently registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
