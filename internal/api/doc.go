// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package api provides the chi-routed HTTP query surface for the CAP alert
pipeline: alert reads, source CRUD, manual refresh triggers, a statistics
snapshot, and a websocket feed of lifecycle events.

Key Components:

  - Router: chi route tree and global middleware stack
  - Handler: request handlers for every /cap-alerts and /cap-sources route
  - Response: the flat JSON envelope every handler writes
  - validation.go: go-playground/validator request payloads for source CRUD

Route Categories:

 1. Alerts (/cap-alerts/):
  - active, {id}, area/{lat}/{lng}, severity/{level}, stats
  - fetch?sourceId=, refresh (manual cycle triggers)

 2. Sources (/cap-sources/):
  - CRUD plus seed (insert default sources when the registry is empty)

 3. Health (/healthz) and metrics (/metrics).

 4. Live feed (/ws): lifecycle events (alert.new/update/expire,
    source.new/update/delete) pushed to subscribed dashboards.

Usage Example:

	handler := api.NewHandler(db, registry, scheduler, hub, parserStats, schedulerStats)
	chiMW := api.NewChiMiddleware(api.DefaultChiMiddlewareConfig())
	router := api.NewRouter(handler, chiMW)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	http.ListenAndServe(addr, router.SetupChi(hub))

See Also:

  - internal/store: alert/source persistence
  - internal/sources: source registry business rules
  - internal/scheduler: fetch-cycle orchestration, TriggerFetch
  - internal/broadcaster: event hub and websocket upgrade
*/
package api
