// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Compression: Gzip compression for every response when gzip is accepted
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The middleware in this package composes as http.HandlerFunc wrappers:

	http.HandleFunc("/api/v1/endpoint",
	    middleware.PrometheusMetrics( // Layer 1: Metrics
	        middleware.Compression(    // Layer 2: Gzip
	            middleware.RequestID(  // Layer 3: Request tracking
	                handler,           // Layer 4: Business logic
	            ),
	        ),
	    ),
	)

Usage Example - Compression:

	import "github.com/tomtom215/capalert/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Every response is compressed, whatever its size
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 1000 most recent requests
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Wrap handler (Middleware takes and returns an http.Handler)
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get per-endpoint performance statistics (in milliseconds)
	for _, stats := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %d, p95: %d, p99: %d\n",
	        stats.Path, stats.P50Duration, stats.P95Duration, stats.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: mutex-guarded sliding window of latency samples

Compression Details:

The compression middleware:
  - Compresses every response when gzip is accepted; there is no size
    threshold and no mime-type filter
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Skips requests carrying Upgrade: websocket
  - Automatically sets Content-Encoding header
  - Does not flush: compressed data is written out as the gzip writer
    fills and when it is closed at the end of the request

Performance Monitor:

The performance monitor tracks:
  - Request count and status code per request (no error rate is computed)
  - Latency percentiles (p50, p95, p99)
  - Sliding window of the most recent requests, sized by NewPerformanceMonitor
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
