// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/capalert/internal/middleware"
)

// chiMiddlewareAdapter adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler shape so it can be passed to r.Use().
func chiMiddlewareAdapter(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// WebsocketHandler is the subset of internal/broadcaster.Hub the router
// mounts at /ws.
type WebsocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// SetupChi configures the full Chi route tree: /cap-alerts, /cap-sources,
// /healthz, /metrics, and /ws.
func (router *Router) SetupChi(hub WebsocketHandler) http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(E2EDebugLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// ========================
	// Health and Metrics
	// ========================
	r.With(router.chiMiddleware.RateLimitHealth()).Get("/healthz", router.handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Live Feed
	// ========================
	r.With(router.chiMiddleware.RateLimitRead()).Get("/ws", hub.ServeWS)

	// ========================
	// Alerts (read-mostly, /cap-alerts)
	// ========================
	r.Route("/cap-alerts", func(r chi.Router) {
		r.Use(chiMiddlewareAdapter(middleware.PrometheusMetrics))

		r.With(router.chiMiddleware.RateLimitRead()).Get("/active", router.handler.ListActive)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/stats", router.handler.Stats)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/area/{lat}/{lng}", router.handler.FindByArea)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/severity/{level}", router.handler.FindBySeverity)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/{id}", router.handler.GetByID)

		r.With(router.chiMiddleware.RateLimitWrite()).Get("/fetch", router.handler.TriggerFetch)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/refresh", router.handler.Refresh)
	})

	// ========================
	// Sources (CRUD, /cap-sources)
	// ========================
	r.Route("/cap-sources", func(r chi.Router) {
		r.Use(chiMiddlewareAdapter(middleware.PrometheusMetrics))

		r.With(router.chiMiddleware.RateLimitRead()).Get("/", router.handler.ListSources)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/{id}", router.handler.GetSource)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreateSource)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/seed", router.handler.SeedDefaults)
		r.With(router.chiMiddleware.RateLimitWrite()).Put("/{id}", router.handler.UpdateSource)
		r.With(router.chiMiddleware.RateLimitWrite()).Delete("/{id}", router.handler.DeleteSource)
	})

	return r
}
