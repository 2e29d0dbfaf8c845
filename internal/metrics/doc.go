// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - DuckDB query latency, errors and spatial operations
  - HTTP API request counts, latency and in-flight requests
  - Feed parser fetches, detail failures, HTML fallbacks and cache hits
  - Scheduler fetch cycles and alert lifecycle transitions
  - Janitor sweeps
  - Broadcaster subscribers and published/dropped events

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type (timeout, constraint, connection, unknown)
  - duckdb_spatial_operations_total: Spatial operations (counter)
    Labels: operation_type

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
    Buckets: .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
  - api_active_requests: Active requests (gauge)

Parser Metrics:
  - capalert_parser_fetch_duration_seconds: Feed-plus-detail fetch duration (histogram)
    Labels: source_id
  - capalert_parser_items_fetched_total: Items parsed into alerts (counter)
    Labels: source_id
  - capalert_parser_detail_failures_total: Failed detail fetches (counter)
    Labels: source_id
  - capalert_parser_html_fallbacks_total: Alerts recovered via the HTML fallback (counter)
    Labels: source_id
  - capalert_parser_cache_hits_total, capalert_parser_cache_misses_total:
    Detail-response cache hits and misses (counters)

Scheduler Metrics:
  - capalert_fetch_cycles_total: Fetch cycles run (counter)
    Labels: source_id, result (success, failure)
  - capalert_fetch_cycle_duration_seconds: Cycle duration (histogram)
    Labels: source_id
  - capalert_alerts_active: Active alerts across all sources (gauge)
  - capalert_alerts_total: Alert lifecycle transitions (counter)
    Labels: transition (new, updated, expired, purged)

Janitor Metrics:
  - capalert_janitor_sweep_duration_seconds: Sweep duration (histogram)
  - capalert_janitor_last_sweep_timestamp: Unix timestamp of the last sweep (gauge)

Broadcaster Metrics:
  - capalert_broadcaster_subscribers: Connected subscribers (gauge)
  - capalert_broadcaster_events_published_total: Events published (counter)
    Labels: topic
  - capalert_broadcaster_events_dropped_total: Events dropped on a full buffer (counter)
    Labels: topic
  - capalert_broadcaster_nats_publishes_total: Events forwarded to NATS (counter)

# Usage Example

Every metric is registered with the default registry by promauto when the
package is loaded; internal/api serves them on /metrics via promhttp.

Recording metrics:

	metrics.RecordAPIRequest("GET", "/cap-alerts/active", "200", 23*time.Millisecond)
	metrics.RecordDBQuery("select", "alerts", 5*time.Millisecond, err)
	metrics.RecordFetchCycle(sourceID, failed, time.Since(start))
	metrics.RecordAlertTransition("new", len(newAlerts))

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'cartographus'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

# Grafana Dashboards

The metrics support Grafana dashboards with panels for:

  - Request rate (queries per second)
  - Request latency (p50, p95, p99 percentiles)
  - Error rate (errors per second by endpoint)
  - Database query performance (duration distribution)
  - Fetch-cycle statistics (items per cycle, duration trends)
  - Broadcaster subscribers and dropped events
  - Cache hit rate and efficiency

Example PromQL queries:

	# API request rate
	rate(api_requests_total[5m])

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Database query rate
	rate(duckdb_query_duration_seconds_count[5m])

	# Detail cache hit rate
	rate(capalert_parser_cache_hits_total[5m]) / (rate(capalert_parser_cache_hits_total[5m]) + rate(capalert_parser_cache_misses_total[5m]))

	# Parsed items per minute
	sum(rate(capalert_parser_items_fetched_total[1m])) * 60

# Performance Impact

Metrics collection overhead:
  - Counter increment: ~100ns per operation
  - Histogram observation: ~500ns per operation
  - Memory overhead: ~5KB per metric time series
  - Total overhead: <1% CPU, <10MB RAM for typical workloads

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels are the URL path (no query parameters)
  - Status codes are recorded as the exact code, not grouped into classes
  - Error types are limited to predefined constants
  - User-specific labels are avoided

Per-source metrics carry a source_id label, so their series count grows
with the number of configured sources.

# Alerting Rules

Example Prometheus alerting rules:

	groups:
	  - name: cartographus
	    rules:
	      - alert: HighErrorRate
	        expr: |
	          sum(rate(api_requests_total{status_code=~"5.."}[5m]))
	          /
	          sum(rate(api_requests_total[5m]))
	          > 0.05
	        for: 5m
	        annotations:
	          summary: "High error rate: {{ $value }}%"

	      - alert: SlowDatabaseQueries
	        expr: |
	          histogram_quantile(0.95,
	            rate(duckdb_query_duration_seconds_bucket[5m]))
	          > 1
	        for: 5m
	        annotations:
	          summary: "p95 query latency: {{ $value }}s"

	      - alert: FetchCyclesFailing
	        expr: rate(capalert_fetch_cycles_total{result="failure"}[15m]) > 0
	        for: 15m
	        annotations:
	          summary: "Fetch cycles failing for source {{ $labels.source_id }}"

# Debugging

Enable metrics debugging with LOG_LEVEL=debug:

	# View all registered metrics
	curl http://localhost:8080/metrics | grep "# HELP"

	# Check specific metric
	curl http://localhost:8080/metrics | grep api_requests_total

	# Validate Prometheus format
	curl -s http://localhost:8080/metrics | promtool check metrics

# Best Practices

When adding new metrics:

 1. Use appropriate metric types:
    - Counter: Monotonically increasing values (requests, errors)
    - Gauge: Point-in-time values (connections, queue size)
    - Histogram: Distribution of values (latency, size)

 2. Choose descriptive names:
    - Use underscore separation: http_request_duration_seconds
    - Include units: _seconds, _bytes, _total
    - Follow Prometheus naming conventions

 3. Add helpful documentation:
    - Include HELP text describing the metric
    - Document all label dimensions
    - Specify units in metric name

 4. Minimize cardinality:
    - Avoid high-cardinality labels (user IDs, timestamps)
    - Normalize endpoint paths
    - Use fixed error type constants

 5. Test performance impact:
    - Benchmark metric recording overhead
    - Monitor memory usage with many time series
    - Validate scrape duration <1s

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/store: Alert store metrics recording
  - internal/scheduler: Fetch-cycle metrics
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
  - https://prometheus.io/docs/practices/instrumentation/: Instrumentation guide
*/
package metrics
