// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import "sync/atomic"

// ParserStats holds monotonically increasing, process-lifetime counters
// for the CAP parser (C2), exposed read-only via the Query API (C8).
type ParserStats struct {
	RequestsTotal      int64
	SuccessfulRequests int64
	FailedRequests     int64
	CacheHits           int64
	HTMLFallbacks       int64
}

// IncRequest records one detail-fetch attempt outcome.
func (p *ParserStats) IncRequest(success bool) {
	atomic.AddInt64(&p.RequestsTotal, 1)
	if success {
		atomic.AddInt64(&p.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&p.FailedRequests, 1)
	}
}

// IncCacheHit records a response-cache hit.
func (p *ParserStats) IncCacheHit() { atomic.AddInt64(&p.CacheHits, 1) }

// IncHTMLFallback records a successful HTML-fallback recovery.
func (p *ParserStats) IncHTMLFallback() { atomic.AddInt64(&p.HTMLFallbacks, 1) }

// Snapshot returns a copy safe for concurrent read (e.g. JSON encoding).
func (p *ParserStats) Snapshot() ParserStats {
	return ParserStats{
		RequestsTotal:      atomic.LoadInt64(&p.RequestsTotal),
		SuccessfulRequests: atomic.LoadInt64(&p.SuccessfulRequests),
		FailedRequests:     atomic.LoadInt64(&p.FailedRequests),
		CacheHits:          atomic.LoadInt64(&p.CacheHits),
		HTMLFallbacks:      atomic.LoadInt64(&p.HTMLFallbacks),
	}
}

// SchedulerStats holds monotonically increasing, process-lifetime counters
// for the scheduler (C5) and janitor (C7), exposed via the Query API (C8).
type SchedulerStats struct {
	CyclesTotal   int64
	CyclesFailed  int64
	AlertsNew     int64
	AlertsUpdated int64
	AlertsExpired int64
	AlertsCleaned int64
}

// IncCycle records one fetch-cycle outcome.
func (s *SchedulerStats) IncCycle(failed bool) {
	atomic.AddInt64(&s.CyclesTotal, 1)
	if failed {
		atomic.AddInt64(&s.CyclesFailed, 1)
	}
}

// AddNew records n newly inserted alerts.
func (s *SchedulerStats) AddNew(n int64) { atomic.AddInt64(&s.AlertsNew, n) }

// AddUpdated records n updated alerts.
func (s *SchedulerStats) AddUpdated(n int64) { atomic.AddInt64(&s.AlertsUpdated, n) }

// AddExpired records n alerts transitioning active->inactive.
func (s *SchedulerStats) AddExpired(n int64) { atomic.AddInt64(&s.AlertsExpired, n) }

// AddCleaned records n alerts purged by the janitor's retention sweep.
func (s *SchedulerStats) AddCleaned(n int64) { atomic.AddInt64(&s.AlertsCleaned, n) }

// Snapshot returns a copy safe for concurrent read.
func (s *SchedulerStats) Snapshot() SchedulerStats {
	return SchedulerStats{
		CyclesTotal:   atomic.LoadInt64(&s.CyclesTotal),
		CyclesFailed:  atomic.LoadInt64(&s.CyclesFailed),
		AlertsNew:     atomic.LoadInt64(&s.AlertsNew),
		AlertsUpdated: atomic.LoadInt64(&s.AlertsUpdated),
		AlertsExpired: atomic.LoadInt64(&s.AlertsExpired),
		AlertsCleaned: atomic.LoadInt64(&s.AlertsCleaned),
	}
}

// Stats is the combined statistics snapshot returned by GET /cap-alerts/stats.
type Stats struct {
	TotalAlerts    int64            `json:"totalAlerts"`
	ActiveAlerts   int64            `json:"activeAlerts"`
	BySeverity     map[string]int64 `json:"bySeverity"`
	ByCategory     map[string]int64 `json:"byCategory"`
	Parser         ParserStats      `json:"parser"`
	Scheduler      SchedulerStats   `json:"scheduler"`
}
