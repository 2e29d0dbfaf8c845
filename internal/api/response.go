// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package api provides the chi-based HTTP query API: routing, the flat
// JSON response envelope, and production middleware (CORS, rate limiting,
// request-id propagation).
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/models"
)

// Response is the flat envelope every /cap-alerts and /cap-sources
// endpoint writes: `{ success, message?, count?, alerts?|alert?|source(s)?|stats?, error? }`.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   int    `json:"count,omitempty"`

	Alerts  []models.Alert   `json:"alerts,omitempty"`
	Alert   *models.Alert    `json:"alert,omitempty"`
	Sources []models.Source  `json:"sources,omitempty"`
	Source  *models.Source   `json:"source,omitempty"`
	Stats   interface{}      `json:"stats,omitempty"`
}

// ResponseWriter writes a Response to an http.ResponseWriter.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter creates a new response writer.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// Alerts writes a successful list-of-alerts response.
func (rw *ResponseWriter) Alerts(alerts []models.Alert) {
	rw.write(http.StatusOK, Response{Success: true, Alerts: alerts, Count: len(alerts)})
}

// Alert writes a successful single-alert response.
func (rw *ResponseWriter) Alert(alert models.Alert) {
	rw.write(http.StatusOK, Response{Success: true, Alert: &alert})
}

// Sources writes a successful list-of-sources response.
func (rw *ResponseWriter) Sources(sources []models.Source) {
	rw.write(http.StatusOK, Response{Success: true, Sources: sources, Count: len(sources)})
}

// Source writes a successful single-source response.
func (rw *ResponseWriter) Source(source models.Source) {
	rw.write(http.StatusOK, Response{Success: true, Source: &source})
}

// SourceCreated writes a 201 single-source response (e.g. after a POST).
func (rw *ResponseWriter) SourceCreated(source models.Source) {
	rw.write(http.StatusCreated, Response{Success: true, Source: &source})
}

// Stats writes a successful statistics-snapshot response.
func (rw *ResponseWriter) Stats(stats interface{}) {
	rw.write(http.StatusOK, Response{Success: true, Stats: stats})
}

// Message writes a bare success message, for operations with no payload
// (seed, delete, refresh-triggered).
func (rw *ResponseWriter) Message(message string) {
	rw.write(http.StatusOK, Response{Success: true, Message: message})
}

// Created writes a bare 201 success message.
func (rw *ResponseWriter) Created(message string) {
	rw.write(http.StatusCreated, Response{Success: true, Message: message})
}

// NoContent writes a 204 with no body.
func (rw *ResponseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given HTTP status.
func (rw *ResponseWriter) Error(statusCode int, message string) {
	rw.write(statusCode, Response{Success: false, Error: message})
}

// BadRequest writes a 400 validation error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, message)
}

// NotFound writes a 404 not-found error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, message)
}

// Conflict writes a 409 conflict error (e.g. duplicate source name, or
// deleting the last default source).
func (rw *ResponseWriter) Conflict(message string) {
	rw.Error(http.StatusConflict, message)
}

// InternalError logs err and writes a 500 with a generic message — the
// underlying error never reaches the client.
func (rw *ResponseWriter) InternalError(err error) {
	logging.Error().Err(err).Str("path", rw.r.URL.Path).Msg("api: internal error")
	rw.Error(http.StatusInternalServerError, "internal server error")
}

// ValidationError writes a 400 with a structured validator failure.
func (rw *ResponseWriter) ValidationError(message string) {
	rw.BadRequest(message)
}

func (rw *ResponseWriter) write(statusCode int, resp Response) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)
	if err := json.NewEncoder(rw.w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("api: failed to encode JSON response")
	}
}

// WriteInternalError is a convenience function for handlers that didn't
// construct a ResponseWriter (e.g. middleware-level panics).
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	NewResponseWriter(w, r).InternalError(err)
}
