// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/capalert/internal/models"
	"github.com/tomtom215/capalert/internal/store"
)

// ErrNotFound is returned when a source id has no matching row.
var ErrNotFound = store.ErrNotFound

// ErrLastDefault is returned by Delete when the target is the only
// source with is_default=true; deletion is refused
// outright rather than leaving the registry with no default source.
var ErrLastDefault = errors.New("sources: cannot delete the last remaining default source")

// db is the subset of *store.DB the registry depends on, so tests can
// substitute a fake without spinning up DuckDB.
type db interface {
	ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error)
	GetSource(ctx context.Context, id string) (*models.Source, error)
	GetDefaultSource(ctx context.Context) (*models.Source, error)
	CountDefaultSources(ctx context.Context) (int, error)
	CreateSource(ctx context.Context, s *models.Source) error
	UpdateSource(ctx context.Context, s *models.Source) error
	RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error
	DeleteSource(ctx context.Context, id string) error
}

// Registry is the source-of-truth for configured CAP feed sources: it
// wraps internal/store's Source CRUD with the default-exclusivity and
// last-default-deletion policies.
type Registry struct {
	db db
}

// New builds a Registry over the given store.
func New(s *store.DB) *Registry {
	return &Registry{db: s}
}

// GetActive returns every source with active=true.
func (r *Registry) GetActive(ctx context.Context) ([]models.Source, error) {
	return r.db.ListSources(ctx, true)
}

// GetAll returns every configured source, active or not.
func (r *Registry) GetAll(ctx context.Context) ([]models.Source, error) {
	return r.db.ListSources(ctx, false)
}

// GetDefault returns the single source flagged is_default=true, or
// ErrNotFound if none is configured.
func (r *Registry) GetDefault(ctx context.Context) (*models.Source, error) {
	return r.db.GetDefaultSource(ctx)
}

// GetByID returns the source with the given id, or ErrNotFound.
func (r *Registry) GetByID(ctx context.Context, id string) (*models.Source, error) {
	return r.db.GetSource(ctx, id)
}

// Create assigns a new id to s (if it doesn't already have one) and
// inserts it. If s.Default is true the store atomically clears every
// other source's default flag as part of the same write.
func (r *Registry) Create(ctx context.Context, s *models.Source) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.FetchIntervalSeconds < models.MinFetchIntervalSeconds {
		s.FetchIntervalSeconds = models.MinFetchIntervalSeconds
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := r.db.CreateSource(ctx, s); err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of the source identified by
// s.ID. If s.Default is being set to true, every other source's
// default flag is atomically cleared as part of the same write.
func (r *Registry) Update(ctx context.Context, s *models.Source) error {
	if s.FetchIntervalSeconds < models.MinFetchIntervalSeconds {
		s.FetchIntervalSeconds = models.MinFetchIntervalSeconds
	}
	if err := r.db.UpdateSource(ctx, s); err != nil {
		return fmt.Errorf("update source %s: %w", s.ID, err)
	}
	return nil
}

// Delete removes the source identified by id, refusing if doing so
// would remove the last remaining default source.
func (r *Registry) Delete(ctx context.Context, id string) error {
	s, err := r.db.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if s.Default {
		n, err := r.db.CountDefaultSources(ctx)
		if err != nil {
			return fmt.Errorf("count default sources: %w", err)
		}
		if n <= 1 {
			return ErrLastDefault
		}
	}
	return r.db.DeleteSource(ctx, id)
}

// NeedsFetching reports whether the given source is due for another
// fetch cycle, delegating to models.Source.NeedsFetching.
func (r *Registry) NeedsFetching(s *models.Source, now time.Time) bool {
	return s.NeedsFetching(now)
}

// RecordFetchAttempt persists the outcome of one fetch cycle: counters
// and timestamps, success or failure. Called by the scheduler on every
// cycle exit regardless of outcome.
func (r *Registry) RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error {
	if err := r.db.RecordFetchAttempt(ctx, id, now, success, errMsg); err != nil {
		return fmt.Errorf("record fetch attempt for source %s: %w", id, err)
	}
	return nil
}
