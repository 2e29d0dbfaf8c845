// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and an optional config file (see LoadWithKoanf).
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Server      ServerConfig      `koanf:"server"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	Janitor     JanitorConfig     `koanf:"janitor"`
	Broadcaster BroadcasterConfig `koanf:"broadcaster"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB-backed alert store.
type DatabaseConfig struct {
	// URI is the DuckDB file path (or ":memory:"). Maps to DB_URI.
	URI                    string `koanf:"uri"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// ServerConfig configures the Query API's HTTP listener.
type ServerConfig struct {
	// Port is the HTTP listen port. Maps to HTTP_PORT.
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SchedulerConfig configures the per-source fetch scheduler (C5).
type SchedulerConfig struct {
	// MinFetchIntervalSeconds is checked by Validate to be at least 30. It
	// is not passed on: the registry and scheduler apply the constant
	// models.MinFetchIntervalSeconds as the floor on a source's interval.
	MinFetchIntervalSeconds int `koanf:"min_fetch_interval_seconds"`

	// MaxItemsPerFetch is checked by Validate to be at least 1. It is not
	// passed on: the parser caps RSS items with the constant
	// capfeed.MaxItemsPerFetch.
	MaxItemsPerFetch int `koanf:"max_items_per_fetch"`

	// BatchSize is the reconciliation batch size per cycle.
	BatchSize int `koanf:"batch_size"`

	// StatsLogEveryNCycles dumps a statistics snapshot every N cycles.
	StatsLogEveryNCycles int `koanf:"stats_log_every_n_cycles"`
}

// JanitorConfig configures the coarse periodic sweep (C7).
type JanitorConfig struct {
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	RetentionPeriod time.Duration `koanf:"retention_period"`
}

// BroadcasterConfig configures the live event pub/sub bus (C6).
type BroadcasterConfig struct {
	// SubscriberBufferSize bounds each subscriber's outbound queue; once
	// full, the oldest queued event is dropped.
	SubscriberBufferSize int `koanf:"subscriber_buffer_size"`

	// NATSEnabled turns on the optional Watermill/NATS backend (build-tagged
	// "nats"); when false, the in-process hub is the only fan-out path.
	NATSEnabled bool   `koanf:"nats_enabled"`
	NATSURL     string `koanf:"nats_url"`
}

// APIConfig holds page-size settings for the Query API. Validate checks
// them for consistency; no handler reads them and responses are not paged.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
