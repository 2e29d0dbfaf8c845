// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build !nats

package broadcaster

import (
	"context"

	"github.com/tomtom215/capalert/internal/logging"
)

// StartNATSBridge is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable the Watermill/NATS forwarding bridge.
func StartNATSBridge(ctx context.Context, h *Hub, cfg Config) (func(), error) {
	if cfg.NATSEnabled {
		logging.Warn().Msg("broadcaster: nats_enabled is true but binary was built without -tags=nats, ignoring")
	}
	return func() {}, nil
}
