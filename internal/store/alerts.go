// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
	"github.com/tomtom215/capalert/internal/models"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("store: not found")

const alertSelectColumns = `id, source_id, identifier, sender, sent, status, msg_type, scope, code, note,
	"references", incidents, info, highest_severity, latest_expires, fetched_at, active, created_at, updated_at`

// FindActive returns every alert with active=true, ordered by severity
// (most severe first) then by sent time (newest first).
func (db *DB) FindActive(ctx context.Context) ([]models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE active = true
		ORDER BY
			CASE highest_severity
				WHEN 'Extreme' THEN 0
				WHEN 'Severe' THEN 1
				WHEN 'Moderate' THEN 2
				WHEN 'Minor' THEN 3
				ELSE 4
			END,
			sent DESC
	`, alertSelectColumns)

	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find active alerts: %w", err)
	}
	defer closeQuietly(rows)

	return scanAlerts(rows)
}

// FindByPoint returns active alerts whose geometry contains the given
// [lon, lat] point, using the spatial R-tree index.
func (db *DB) FindByPoint(ctx context.Context, lon, lat float64) ([]models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	metrics.RecordSpatialOp("within")

	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE active = true
		  AND geometry IS NOT NULL
		  AND ST_Intersects(geometry, ST_Point(?, ?))
		ORDER BY
			CASE highest_severity
				WHEN 'Extreme' THEN 0
				WHEN 'Severe' THEN 1
				WHEN 'Moderate' THEN 2
				WHEN 'Minor' THEN 3
				ELSE 4
			END,
			sent DESC
	`, alertSelectColumns)

	rows, err := db.conn.QueryContext(ctx, query, lon, lat)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find alerts by point: %w", err)
	}
	defer closeQuietly(rows)

	return scanAlerts(rows)
}

// FindBySeverity returns active alerts whose highest severity matches level,
// newest first.
func (db *DB) FindBySeverity(ctx context.Context, level models.Severity) ([]models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE active = true AND highest_severity = ?
		ORDER BY sent DESC
	`, alertSelectColumns)

	rows, err := db.conn.QueryContext(ctx, query, string(level))
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find alerts by severity: %w", err)
	}
	defer closeQuietly(rows)

	return scanAlerts(rows)
}

// FindByID returns the single alert with the given id, or ErrNotFound.
func (db *DB) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = ?`, alertSelectColumns)

	rows, err := db.conn.QueryContext(ctx, query, id)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find alert by id: %w", err)
	}
	defer closeQuietly(rows)

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, ErrNotFound
	}
	return &alerts[0], nil
}

// CountTotal returns the total number of alert rows ever persisted,
// active or not.
func (db *DB) CountTotal(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}

// CountActive returns the number of currently active alert rows, the value
// behind the AlertsActive gauge and the stats snapshot's activeAlerts field.
func (db *DB) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE active = true`).Scan(&n)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count active alerts: %w", err)
	}
	return n, nil
}

// FindByIdentifiers returns, for a given source, the subset of the
// requested identifiers that already have a stored row, keyed by
// identifier. Used by the scheduler to classify parsed items as
// new/existing before reconciling a fetch cycle.
func (db *DB) FindByIdentifiers(ctx context.Context, sourceID string, identifiers []string) (map[string]models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result := make(map[string]models.Alert, len(identifiers))
	if len(identifiers) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(identifiers))
	args := make([]interface{}, 0, len(identifiers)+1)
	args = append(args, sourceID)
	for i, id := range identifiers {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE source_id = ? AND identifier IN (%s)
	`, alertSelectColumns, joinPlaceholders(placeholders))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find alerts by identifiers: %w", err)
	}
	defer closeQuietly(rows)

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		result[a.Identifier] = a
	}
	return result, nil
}

func joinPlaceholders(ph []string) string {
	s := ""
	for i, p := range ph {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	return s
}

// BulkInsertAlerts inserts new alert rows (sourceId, identifier previously
// unseen). Geometry is left NULL here — the caller populates it in a
// follow-up SetAlertGeometry call per record once C1 normalization has
// run, so one bad polygon never aborts the whole batch.
func (db *DB) BulkInsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("insert", "alerts", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertAlertSQL)
	if err != nil {
		return fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range alerts {
		if err = execInsertAlert(ctx, stmt, &alerts[i]); err != nil {
			return fmt.Errorf("insert alert %s/%s: %w", alerts[i].SourceID, alerts[i].Identifier, err)
		}
	}

	err = tx.Commit()
	return err
}

const insertAlertSQL = `
INSERT INTO alerts (id, source_id, identifier, sender, sent, status, msg_type, scope, code, note,
	"references", incidents, info, highest_severity, latest_expires, fetched_at, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`

func execInsertAlert(ctx context.Context, stmt *sql.Stmt, a *models.Alert) error {
	codeJSON, err := json.Marshal(a.Code)
	if err != nil {
		return fmt.Errorf("marshal code: %w", err)
	}
	infoJSON, err := json.Marshal(a.Info)
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}

	_, err = stmt.ExecContext(ctx,
		a.ID, a.SourceID, a.Identifier, a.Sender, a.Sent, string(a.Status), string(a.MsgType), string(a.Scope),
		string(codeJSON), a.Note, a.References, a.Incidents, string(infoJSON),
		string(a.HighestSeverity()), nullableTime(a.LatestExpiry()), a.FetchedAt, a.Active)
	return err
}

// BulkUpsertAlerts updates existing rows (matched by id) with a cleaned
// payload — callers strip geoJson from incoming info before calling this;
// geometry is recomputed separately.
func (db *DB) BulkUpsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("update", "alerts", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, updateAlertSQL)
	if err != nil {
		return fmt.Errorf("prepare bulk upsert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range alerts {
		a := &alerts[i]
		mu := db.acquireLock(a.SourceID + "/" + a.Identifier)
		err = execUpdateAlert(ctx, stmt, a)
		db.releaseLock(mu)
		if err != nil {
			return fmt.Errorf("upsert alert %s/%s: %w", a.SourceID, a.Identifier, err)
		}
	}

	err = tx.Commit()
	return err
}

const updateAlertSQL = `
UPDATE alerts SET
	sender = ?, sent = ?, status = ?, msg_type = ?, scope = ?, code = ?, note = ?,
	"references" = ?, incidents = ?, info = ?, highest_severity = ?, latest_expires = ?,
	fetched_at = ?, active = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func execUpdateAlert(ctx context.Context, stmt *sql.Stmt, a *models.Alert) error {
	codeJSON, err := json.Marshal(a.Code)
	if err != nil {
		return fmt.Errorf("marshal code: %w", err)
	}
	infoJSON, err := json.Marshal(a.Info)
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}

	_, err = stmt.ExecContext(ctx,
		a.Sender, a.Sent, string(a.Status), string(a.MsgType), string(a.Scope), string(codeJSON), a.Note,
		a.References, a.Incidents, string(infoJSON), string(a.HighestSeverity()), nullableTime(a.LatestExpiry()),
		a.FetchedAt, a.Active, a.ID)
	return err
}

// SetAlertGeometry recomputes the info JSON column (now carrying geoJson
// populated by C1) and the geometry spatial column for one alert.
//
// A spatial-index update that would accept a topologically invalid
// polygon is rejected by DuckDB at write time; that
// rejection is a soft error — it is logged here and swallowed, leaving
// geometry NULL for this record, rather than returned to the caller.
// Every other column update (including the info JSON with geoJson) still
// commits.
func (db *DB) SetAlertGeometry(ctx context.Context, alertID string, info []models.Info, geometryGeoJSON string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, `UPDATE alerts SET info = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(infoJSON), alertID); err != nil {
		return fmt.Errorf("update alert info: %w", err)
	}

	if geometryGeoJSON == "" || !db.spatialAvailable {
		return nil
	}

	metrics.RecordSpatialOp("geomfromgeojson")
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE alerts SET geometry = ST_GeomFromGeoJSON(?) WHERE id = ?`, geometryGeoJSON, alertID); err != nil {
		logging.Warn().Str("alertId", alertID).Err(err).Msg("Rejected geometry at write time, leaving geometry NULL")
	}

	return nil
}

// MarkExpired flips active=false for every row whose latest_expires is at
// or before now, optionally scoped to one source. It returns the full rows
// that transitioned (not just a count) so callers can emit alert.expire for
// each one, matching the exactly-once new/update/expire lifecycle.
func (db *DB) MarkExpired(ctx context.Context, now time.Time, sourceID string) ([]models.Alert, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE alerts SET active = false, updated_at = CURRENT_TIMESTAMP
		WHERE active = true AND latest_expires IS NOT NULL AND latest_expires <= ?`
	args := []interface{}{now}
	if sourceID != "" {
		query += " AND source_id = ?"
		args = append(args, sourceID)
	}
	query += fmt.Sprintf(" RETURNING %s", alertSelectColumns)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("update", "alerts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("mark expired: %w", err)
	}
	defer closeQuietly(rows)

	return scanAlerts(rows)
}

// DeleteOldInactive purges inactive alerts whose latest_expires and
// fetched_at are both at or before cutoff.
func (db *DB) DeleteOldInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		DELETE FROM alerts
		WHERE active = false
		  AND (latest_expires IS NULL OR latest_expires <= ?)
		  AND fetched_at <= ?
	`, cutoff, cutoff)
	metrics.RecordDBQuery("delete", "alerts", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete old inactive alerts: %w", err)
	}
	return result.RowsAffected()
}

func scanAlerts(rows *sql.Rows) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func scanAlertRow(rows *sql.Rows) (*models.Alert, error) {
	var (
		a               models.Alert
		status, msgType string
		scope           string
		codeJSON        string
		infoJSON        string
		highestSeverity sql.NullString
		latestExpires   sql.NullTime
	)

	if err := rows.Scan(&a.ID, &a.SourceID, &a.Identifier, &a.Sender, &a.Sent, &status, &msgType, &scope,
		&codeJSON, &a.Note, &a.References, &a.Incidents, &infoJSON, &highestSeverity, &latestExpires,
		&a.FetchedAt, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan alert row: %w", err)
	}

	a.Status = models.Status(status)
	a.MsgType = models.MsgType(msgType)
	a.Scope = models.Scope(scope)

	if codeJSON != "" {
		if err := json.Unmarshal([]byte(codeJSON), &a.Code); err != nil {
			return nil, fmt.Errorf("unmarshal code: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(infoJSON), &a.Info); err != nil {
		return nil, fmt.Errorf("unmarshal info: %w", err)
	}

	return &a, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
