// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sources

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/capalert/internal/models"
	"github.com/tomtom215/capalert/internal/store"
)

// fakeDB is an in-memory stand-in for *store.DB, grounded on the
// interface subset the Registry actually calls.
type fakeDB struct {
	sources map[string]*models.Source
}

func newFakeDB() *fakeDB {
	return &fakeDB{sources: make(map[string]*models.Source)}
}

func (f *fakeDB) ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error) {
	var out []models.Source
	for _, s := range f.sources {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeDB) GetSource(ctx context.Context, id string) (*models.Source, error) {
	s, ok := f.sources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeDB) GetDefaultSource(ctx context.Context) (*models.Source, error) {
	for _, s := range f.sources {
		if s.Default {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDB) CountDefaultSources(ctx context.Context) (int, error) {
	n := 0
	for _, s := range f.sources {
		if s.Default {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) CreateSource(ctx context.Context, s *models.Source) error {
	if s.Default {
		for _, other := range f.sources {
			other.Default = false
		}
	}
	cp := *s
	f.sources[s.ID] = &cp
	return nil
}

func (f *fakeDB) UpdateSource(ctx context.Context, s *models.Source) error {
	if s.Default {
		for id, other := range f.sources {
			if id != s.ID {
				other.Default = false
			}
		}
	}
	cp := *s
	f.sources[s.ID] = &cp
	return nil
}

func (f *fakeDB) RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error {
	s, ok := f.sources[id]
	if !ok {
		return store.ErrNotFound
	}
	s.RecordFetchAttempt(now, success, errMsg)
	return nil
}

func (f *fakeDB) DeleteSource(ctx context.Context, id string) error {
	if _, ok := f.sources[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.sources, id)
	return nil
}

func newTestRegistry() (*Registry, *fakeDB) {
	f := newFakeDB()
	return &Registry{db: f}, f
}

func TestCreate_AssignsIDAndEnforcesMinInterval(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()
	ctx := t.Context()

	s := &models.Source{Name: "nws", FeedURL: "https://example.gov/nws/rss", FetchIntervalSeconds: 1}
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" {
		t.Error("Create() left ID empty")
	}
	if s.FetchIntervalSeconds != models.MinFetchIntervalSeconds {
		t.Errorf("FetchIntervalSeconds = %d, want %d", s.FetchIntervalSeconds, models.MinFetchIntervalSeconds)
	}
}

func TestCreate_ClearsExistingDefault(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()
	ctx := t.Context()

	first := &models.Source{Name: "first", FeedURL: "https://example.gov/a", Default: true, FetchIntervalSeconds: 60}
	if err := r.Create(ctx, first); err != nil {
		t.Fatalf("Create(first) error = %v", err)
	}
	second := &models.Source{Name: "second", FeedURL: "https://example.gov/b", Default: true, FetchIntervalSeconds: 60}
	if err := r.Create(ctx, second); err != nil {
		t.Fatalf("Create(second) error = %v", err)
	}

	got, err := r.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID(first) error = %v", err)
	}
	if got.Default {
		t.Error("first source still marked default after second was created")
	}
}

func TestDelete_RefusesLastDefault(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()
	ctx := t.Context()

	s := &models.Source{Name: "only", FeedURL: "https://example.gov/only", Default: true, FetchIntervalSeconds: 60}
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := r.Delete(ctx, s.ID); err != ErrLastDefault {
		t.Fatalf("Delete() error = %v, want ErrLastDefault", err)
	}
}

func TestDelete_AllowsNonLastDefault(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()
	ctx := t.Context()

	a := &models.Source{Name: "a", FeedURL: "https://example.gov/a", Default: true, FetchIntervalSeconds: 60}
	b := &models.Source{Name: "b", FeedURL: "https://example.gov/b", Default: true, FetchIntervalSeconds: 60}
	if err := r.Create(ctx, a); err != nil {
		t.Fatalf("Create(a) error = %v", err)
	}
	if err := r.Create(ctx, b); err != nil {
		t.Fatalf("Create(b) error = %v", err)
	}

	// b is now the sole default (a was cleared on creation of b); deleting
	// a (non-default) must succeed regardless of how many defaults exist.
	if err := r.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete(a) error = %v", err)
	}
	if _, err := r.GetByID(ctx, a.ID); err != ErrNotFound {
		t.Fatalf("GetByID(a) error = %v, want ErrNotFound", err)
	}
}

func TestNeedsFetching(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()

	s := &models.Source{FetchIntervalSeconds: 60}
	now := time.Now()
	if !r.NeedsFetching(s, now) {
		t.Error("NeedsFetching() = false for a source never fetched, want true")
	}

	last := now.Add(-30 * time.Second)
	s.LastFetchedAt = &last
	if r.NeedsFetching(s, now) {
		t.Error("NeedsFetching() = true within the interval, want false")
	}

	last = now.Add(-90 * time.Second)
	s.LastFetchedAt = &last
	if !r.NeedsFetching(s, now) {
		t.Error("NeedsFetching() = false past the interval, want true")
	}
}

func TestRecordFetchAttempt(t *testing.T) {
	t.Parallel()
	r, f := newTestRegistry()
	ctx := t.Context()

	s := &models.Source{Name: "x", FeedURL: "https://example.gov/x", FetchIntervalSeconds: 60}
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := r.RecordFetchAttempt(ctx, s.ID, time.Now(), false, "timeout"); err != nil {
		t.Fatalf("RecordFetchAttempt() error = %v", err)
	}
	if f.sources[s.ID].FailedFetches != 1 {
		t.Errorf("FailedFetches = %d, want 1", f.sources[s.ID].FailedFetches)
	}
	if f.sources[s.ID].LastErrorMessage != "timeout" {
		t.Errorf("LastErrorMessage = %q, want %q", f.sources[s.ID].LastErrorMessage, "timeout")
	}
}
