// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

// Router sets up HTTP routes using Chi router (ADR-0016), generalized from
// the media-analytics dashboard surface to the CAP alert query API: no
// authentication, no SPA static-file serving, no admin-entity CRUD.
// chiMiddleware still owns CORS and the three domain-appropriate rate-limit
// tiers.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a new router with all dependencies wired.
func NewRouter(handler *Handler, chiMiddleware *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMiddleware,
	}
}
