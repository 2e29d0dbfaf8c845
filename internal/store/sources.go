// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/capalert/internal/models"
)

const sourceSelectColumns = `id, name, feed_url, country, language, active, is_default, fetch_interval_seconds,
	total_fetches, successful_fetches, failed_fetches, last_fetched_at, last_successful_fetch_at,
	last_error_message, metadata, created_at, updated_at`

// ListSources returns every source, optionally filtered to active=true.
func (db *DB) ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM sources", sourceSelectColumns)
	if activeOnly {
		query += " WHERE active = true"
	}
	query += " ORDER BY name"

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer closeQuietly(rows)

	return scanSources(rows)
}

// GetSource returns the source with the given id, or ErrNotFound.
func (db *DB) GetSource(ctx context.Context, id string) (*models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM sources WHERE id = ?", sourceSelectColumns)
	row := db.conn.QueryRowContext(ctx, query, id)

	s, err := scanSourceRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", id, err)
	}
	return s, nil
}

// GetDefaultSource returns the source with is_default=true, or
// ErrNotFound if none is configured.
func (db *DB) GetDefaultSource(ctx context.Context) (*models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM sources WHERE is_default = true LIMIT 1", sourceSelectColumns)
	row := db.conn.QueryRowContext(ctx, query)

	s, err := scanSourceRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default source: %w", err)
	}
	return s, nil
}

// CountDefaultSources reports how many sources currently have
// is_default=true — used by the source registry to decide whether a
// delete would remove the last remaining default.
func (db *DB) CountDefaultSources(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE is_default = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count default sources: %w", err)
	}
	return count, nil
}

// CreateSource inserts a new source row. If s.Default is true, every
// other source's is_default flag is atomically cleared first, within the
// same transaction.
func (db *DB) CreateSource(ctx context.Context, s *models.Source) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	mu := db.acquireLock("sources:default")
	defer db.releaseLock(mu)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create source transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.Default {
		if _, err := tx.ExecContext(ctx, "UPDATE sources SET is_default = false WHERE is_default = true"); err != nil {
			return fmt.Errorf("clear existing defaults: %w", err)
		}
	}

	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sources (id, name, feed_url, country, language, active, is_default, fetch_interval_seconds,
			total_fetches, successful_fetches, failed_fetches, last_fetched_at, last_successful_fetch_at,
			last_error_message, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, s.ID, s.Name, s.FeedURL, s.Country, s.Language, s.Active, s.Default, s.FetchIntervalSeconds,
		s.TotalFetches, s.SuccessfulFetches, s.FailedFetches, s.LastFetchedAt, s.LastSuccessfulFetchAt,
		s.LastErrorMessage, string(metadataJSON))
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	return tx.Commit()
}

// UpdateSource writes every mutable field of s over the existing row. If
// s.Default is being set to true, every other source's is_default flag is
// atomically cleared first.
func (db *DB) UpdateSource(ctx context.Context, s *models.Source) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	mu := db.acquireLock("sources:default")
	defer db.releaseLock(mu)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update source transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.Default {
		if _, err := tx.ExecContext(ctx, "UPDATE sources SET is_default = false WHERE is_default = true AND id != ?", s.ID); err != nil {
			return fmt.Errorf("clear existing defaults: %w", err)
		}
	}

	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sources SET
			name = ?, feed_url = ?, country = ?, language = ?, active = ?, is_default = ?,
			fetch_interval_seconds = ?, metadata = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, s.Name, s.FeedURL, s.Country, s.Language, s.Active, s.Default, s.FetchIntervalSeconds,
		string(metadataJSON), s.ID)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}

	return tx.Commit()
}

// RecordFetchAttempt updates a source's fetch counters and timestamps in
// a single statement, mirroring models.Source.RecordFetchAttempt.
func (db *DB) RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var query string
	if success {
		query = `UPDATE sources SET total_fetches = total_fetches + 1, successful_fetches = successful_fetches + 1,
			last_fetched_at = ?, last_successful_fetch_at = ?, last_error_message = '', updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`
		_, err := db.conn.ExecContext(ctx, query, now, now, id)
		return err
	}

	query = `UPDATE sources SET total_fetches = total_fetches + 1, failed_fetches = failed_fetches + 1,
		last_fetched_at = ?, last_error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := db.conn.ExecContext(ctx, query, now, errMsg, id)
	return err
}

// DeleteSource removes a source row by id. Callers must first confirm via
// CountDefaultSources that this isn't the last remaining default source.
func (db *DB) DeleteSource(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete source %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSources(rows *sql.Rows) ([]models.Source, error) {
	var sources []models.Source
	for rows.Next() {
		s, err := scanSourceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows for the single
// shared scan path used by GetSource/GetDefaultSource.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSourceRow(row rowScanner) (*models.Source, error) {
	var (
		s                     models.Source
		metadataJSON          sql.NullString
		lastFetchedAt         sql.NullTime
		lastSuccessfulFetchAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.Name, &s.FeedURL, &s.Country, &s.Language, &s.Active, &s.Default,
		&s.FetchIntervalSeconds, &s.TotalFetches, &s.SuccessfulFetches, &s.FailedFetches,
		&lastFetchedAt, &lastSuccessfulFetchAt, &s.LastErrorMessage, &metadataJSON,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if lastFetchedAt.Valid {
		s.LastFetchedAt = &lastFetchedAt.Time
	}
	if lastSuccessfulFetchAt.Valid {
		s.LastSuccessfulFetchAt = &lastSuccessfulFetchAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &s.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal source metadata: %w", err)
		}
	}
	return &s, nil
}
