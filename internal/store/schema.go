// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables runs every CREATE TABLE IF NOT EXISTS statement.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w (query: %s)", err, query)
		}
	}
	return nil
}

// getTableCreationQueries returns the alerts/sources schema. Geometry and
// highest_severity are denormalized columns recomputed on every write —
// they exist purely to let findByPoint and findActive run as indexed SQL
// instead of scanning and decoding the info JSON blob per row.
func (db *DB) getTableCreationQueries() []string {
	sourcesTable := `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	feed_url TEXT NOT NULL,
	country TEXT,
	language TEXT,
	active BOOLEAN NOT NULL DEFAULT true,
	is_default BOOLEAN NOT NULL DEFAULT false,
	fetch_interval_seconds INTEGER NOT NULL DEFAULT 30,
	total_fetches BIGINT NOT NULL DEFAULT 0,
	successful_fetches BIGINT NOT NULL DEFAULT 0,
	failed_fetches BIGINT NOT NULL DEFAULT 0,
	last_fetched_at TIMESTAMPTZ,
	last_successful_fetch_at TIMESTAMPTZ,
	last_error_message TEXT,
	metadata JSON,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	alertsTable := `
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	identifier TEXT NOT NULL,
	sender TEXT,
	sent TIMESTAMPTZ NOT NULL,
	status TEXT,
	msg_type TEXT,
	scope TEXT,
	code JSON,
	note TEXT,
	"references" TEXT,
	incidents TEXT,
	info JSON NOT NULL,
	geometry GEOMETRY,
	highest_severity TEXT,
	latest_expires TIMESTAMPTZ,
	fetched_at TIMESTAMPTZ NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(source_id, identifier)
);
`

	return []string{sourcesTable, alertsTable}
}

// createIndexes creates the secondary and spatial indexes. The spatial
// index is skipped when the spatial extension failed to load
// (DUCKDB_SPATIAL_OPTIONAL=true). The alerts table declares its geometry
// column either way, but SetAlertGeometry then writes no geometry, so
// findByPoint matches no rows.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w (query: %s)", err, query)
		}
	}
	return nil
}

func (db *DB) getIndexQueries() []string {
	queries := []string{
		"CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(active);",
		"CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(highest_severity);",
		"CREATE INDEX IF NOT EXISTS idx_alerts_expires ON alerts(latest_expires);",
		"CREATE INDEX IF NOT EXISTS idx_alerts_source ON alerts(source_id);",
		"CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active);",
		"CREATE INDEX IF NOT EXISTS idx_sources_default ON sources(is_default);",
	}

	if db.spatialAvailable {
		queries = append(queries, "CREATE INDEX IF NOT EXISTS idx_alerts_geometry ON alerts USING RTREE(geometry);")
	}

	return queries
}
