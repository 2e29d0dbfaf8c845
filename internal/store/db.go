// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/capalert/internal/config"
	"github.com/tomtom215/capalert/internal/logging"
)

// DB wraps the DuckDB connection and provides the alert/source data
// access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	spatialAvailable bool
	inetAvailable    bool
	icuAvailable     bool
	jsonAvailable    bool

	rowLocks sync.Map // key -> *sync.Mutex, serializes per-row upserts

	reconnectDelay time.Duration
}

// New opens a DuckDB connection at cfg.URI, installs required extensions,
// and creates the alerts/sources schema if absent.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.URI != ":memory:" {
		dbDir := filepath.Dir(cfg.URI)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Preload extensions into an in-memory database before opening the
	// main file: DuckDB replays its WAL immediately on open, and WAL
	// entries relying on extension-backed defaults (ICU's TIMESTAMPTZ)
	// fail to replay if the extension isn't already loaded process-wide.
	if err := preloadExtensions(); err != nil {
		logging.Warn().Err(err).Msg("Failed to preload extensions, WAL replay may fail if database has pending changes")
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.URI, numThreads, maxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:             conn,
		cfg:              cfg,
		spatialAvailable: true,
		inetAvailable:    true,
		icuAvailable:     true,
		jsonAvailable:    true,
		reconnectDelay:   2 * time.Second,
	}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// IsSpatialAvailable returns whether the spatial extension is available.
func (db *DB) IsSpatialAvailable() bool { return db.spatialAvailable }

// IsInetAvailable returns whether the inet extension is available.
func (db *DB) IsInetAvailable() bool { return db.inetAvailable }

// IsICUAvailable returns whether the icu extension is available.
func (db *DB) IsICUAvailable() bool { return db.icuAvailable }

// IsJSONAvailable returns whether the json extension is available.
func (db *DB) IsJSONAvailable() bool { return db.jsonAvailable }

// SetSpatialAvailableForTesting overrides the spatial-availability flag for
// tests that exercise the degraded path, in which no geometry is written.
func (db *DB) SetSpatialAvailableForTesting(available bool) {
	db.spatialAvailable = available
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB { return db.conn }

// preloadExtensions loads core extensions in an in-memory database before
// the main database file is opened. DuckDB caches loaded extensions
// per-process, so this makes them available during the main file's WAL
// replay.
func preloadExtensions() error {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		logging.Debug().Msg("Skipping extension preload in CI environment")
		return nil
	}

	logging.Debug().Msg("Preloading DuckDB extensions for WAL replay compatibility")

	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database for extension preload: %w", err)
	}
	defer func() {
		conn.SetConnMaxLifetime(0)
		conn.SetMaxIdleConns(0)
		conn.SetMaxOpenConns(0)
		closeQuietly(conn)
	}()

	for _, ext := range []string{"icu", "json", "inet", "spatial"} {
		if !isExtensionInstalledLocally(ext) {
			logging.Debug().Str("extension", ext).Msg("Extension not installed locally, skipping preload")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", ext))
		cancel()
		if err != nil {
			logging.Debug().Str("extension", ext).Err(err).Msg("Failed to preload extension")
		} else {
			logging.Debug().Str("extension", ext).Msg("Extension preloaded successfully")
		}
	}

	return nil
}

// Close flushes the WAL with a checkpoint and closes the connection.
func (db *DB) Close() error {
	if db.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize installs extensions, creates tables and indexes, and runs
// versioned migrations.
func (db *DB) initialize() error {
	if err := db.installExtensions(); err != nil {
		return err
	}
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}
	if err := db.createIndexes(); err != nil {
		return err
	}

	// Checkpoint after schema creation: WAL replay of CREATE TABLE
	// statements that reference extension-backed defaults can fail on
	// the next open otherwise (see New's preloadExtensions comment).
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}

// ensureContext applies a 30-second default timeout if ctx has none.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}
