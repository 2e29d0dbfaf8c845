// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package broadcaster implements C6: the live event bus that fans alert and
// source lifecycle events out to connected subscribers (dashboard
// websocket clients, and, when built with the "nats" tag, an external
// Watermill/NATS subject). Delivery is live-only — a subscriber that
// connects after an event fires never receives it, there is no replay
// buffer. Within a single subscriber's queue, events are delivered in
// the order Publish was called; across topics there is no ordering
// guarantee. A slow subscriber never blocks a publisher: each
// subscriber owns a bounded buffer, and once full the oldest queued
// event — not the newest, and never the subscriber itself — is
// dropped to make room.
package broadcaster
