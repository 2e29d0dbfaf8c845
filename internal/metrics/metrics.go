// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics provides Prometheus instrumentation for the alert
// pipeline: the DuckDB store, the capfeed parser, the per-source
// scheduler, the janitor's retention sweep, and the live broadcaster.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBSpatialOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_spatial_operations_total",
			Help: "Total number of spatial operations (ST_* functions)",
		},
		[]string{"operation_type"}, // "geomfromgeojson", "within", "envelope"
	)

	// API Endpoint Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Parser (C2) Metrics

	ParserFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capalert_parser_fetch_duration_seconds",
			Help:    "Duration of a source's full feed-plus-detail fetch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source_id"},
	)

	ParserItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_parser_items_fetched_total",
			Help: "Total number of feed items successfully parsed into alerts",
		},
		[]string{"source_id"},
	)

	ParserDetailFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_parser_detail_failures_total",
			Help: "Total number of per-identifier detail fetches that failed",
		},
		[]string{"source_id"},
	)

	ParserHTMLFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_parser_html_fallbacks_total",
			Help: "Total number of alert descriptions recovered via the HTML-stripping fallback",
		},
		[]string{"source_id"},
	)

	ParserCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capalert_parser_cache_hits_total",
			Help: "Total number of detail fetches served from the process-local response cache",
		},
	)

	ParserCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capalert_parser_cache_misses_total",
			Help: "Total number of detail fetches that missed the process-local response cache",
		},
	)

	// Scheduler (C5) Metrics

	SchedulerCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_fetch_cycles_total",
			Help: "Total number of per-source fetch cycles run",
		},
		[]string{"source_id", "result"}, // result: "success", "failure"
	)

	SchedulerCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capalert_fetch_cycle_duration_seconds",
			Help:    "Duration of one full fetch-reconcile-geometry cycle",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source_id"},
	)

	AlertsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capalert_alerts_active",
			Help: "Current number of active alerts across all sources",
		},
	)

	AlertsByStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_alerts_total",
			Help: "Total number of alert lifecycle transitions",
		},
		[]string{"transition"}, // "new", "updated", "expired", "purged"
	)

	// Janitor (C7) Metrics

	JanitorSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "capalert_janitor_sweep_duration_seconds",
			Help:    "Duration of one janitor sweep (markExpired + deleteOldInactive)",
			Buckets: prometheus.DefBuckets,
		},
	)

	JanitorLastSweepTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capalert_janitor_last_sweep_timestamp",
			Help: "Unix timestamp of the janitor's last completed sweep",
		},
	)

	// Broadcaster (C6) Metrics

	BroadcasterSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capalert_broadcaster_subscribers",
			Help: "Current number of connected event-bus subscribers",
		},
	)

	BroadcasterEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_broadcaster_events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	BroadcasterEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capalert_broadcaster_events_dropped_total",
			Help: "Total number of events dropped because a subscriber's buffer was full",
		},
		[]string{"topic"},
	)

	BroadcasterNATSPublishes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capalert_broadcaster_nats_publishes_total",
			Help: "Total number of events forwarded to the optional NATS bridge",
		},
	)
)

// RecordDBQuery records a DuckDB query's duration and, on error, increments
// the error counter by a coarse error_type classification.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyDBError(err)).Inc()
	}
}

func classifyDBError(err error) string {
	msg := err.Error()
	switch {
	case contains(msg, "timeout"):
		return "timeout"
	case contains(msg, "constraint"):
		return "constraint"
	case contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (len(substr) == 0 || indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// RecordAPIRequest records one completed HTTP request's status and latency.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSpatialOp increments the spatial-operation counter for opType
// (e.g. "geomfromgeojson" for SetAlertGeometry, "within" for area queries).
func RecordSpatialOp(opType string) {
	DBSpatialOperations.WithLabelValues(opType).Inc()
}

// RecordFetchCycle records a scheduler cycle's outcome and duration.
func RecordFetchCycle(sourceID string, failed bool, duration time.Duration) {
	result := "success"
	if failed {
		result = "failure"
	}
	SchedulerCyclesTotal.WithLabelValues(sourceID, result).Inc()
	SchedulerCycleDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
}

// RecordAlertTransition increments the alert lifecycle counter by n.
func RecordAlertTransition(transition string, n int) {
	if n <= 0 {
		return
	}
	AlertsByStatus.WithLabelValues(transition).Add(float64(n))
}
