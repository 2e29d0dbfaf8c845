// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build nats

package broadcaster

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
)

// natsBridge republishes hub events onto a NATS subject, one subject per
// topic ("<prefix>.alert.new", "<prefix>.source.delete", ...), so external
// consumers can subscribe by wildcard without decoding every event.
type natsBridge struct {
	pub    message.Publisher
	prefix string
}

func newNATSBridge(url, prefix string) (*natsBridge, error) {
	logger := watermill.NewStdLogger(false, false)
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
	}
	cfg := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}
	pub, err := wmNats.NewPublisher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("broadcaster: create nats publisher: %w", err)
	}
	return &natsBridge{pub: pub, prefix: prefix}, nil
}

func (b *natsBridge) forward(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Warn().Err(err).Str("topic", ev.Topic).Msg("broadcaster: nats bridge marshal failed")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", ev.Topic)
	if err := b.pub.Publish(b.prefix+"."+ev.Topic, msg); err != nil {
		logging.Warn().Err(err).Str("topic", ev.Topic).Msg("broadcaster: nats publish failed")
		return
	}
	metrics.BroadcasterNATSPublishes.Inc()
}

func (b *natsBridge) Close() error { return b.pub.Close() }

// StartNATSBridge subscribes to h and forwards every event to cfg.NATSURL
// until ctx is canceled. It is a no-op returning a nil stop func when
// cfg.NATSEnabled is false.
func StartNATSBridge(ctx context.Context, h *Hub, cfg Config) (func(), error) {
	if !cfg.NATSEnabled {
		return func() {}, nil
	}

	prefix := cfg.NATSSubjectPrefix
	if prefix == "" {
		prefix = "capalert"
	}

	bridge, err := newNATSBridge(cfg.NATSURL, prefix)
	if err != nil {
		return nil, err
	}

	events, unsubscribe := h.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				bridge.forward(ev)
			}
		}
	}()

	logging.Info().Str("url", cfg.NATSURL).Str("subjectPrefix", prefix).Msg("broadcaster: nats bridge started")

	return func() {
		unsubscribe()
		_ = bridge.Close()
	}, nil
}
