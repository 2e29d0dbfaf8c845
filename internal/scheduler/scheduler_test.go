// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/capalert/internal/models"
)

type fakeRegistry struct {
	mu      sync.Mutex
	sources map[string]*models.Source
}

func newFakeRegistry(sources ...*models.Source) *fakeRegistry {
	r := &fakeRegistry{sources: make(map[string]*models.Source)}
	for _, s := range sources {
		r.sources[s.ID] = s
	}
	return r
}

func (r *fakeRegistry) GetActive(ctx context.Context) ([]models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Source
	for _, s := range r.sources {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRegistry) GetByID(ctx context.Context, id string) (*models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sources[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRegistry) NeedsFetching(s *models.Source, now time.Time) bool {
	return s.NeedsFetching(now)
}

func (r *fakeRegistry) RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[id]; ok {
		s.RecordFetchAttempt(now, success, errMsg)
	}
	return nil
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	alerts []models.Alert
	err    error
}

func (f *fakeFetcher) FetchAlerts(ctx context.Context, sourceID, feedURL, baseURL string) ([]models.Alert, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.alerts, f.err
}

type fakeStore struct {
	mu                sync.Mutex
	existing          map[string]models.Alert
	inserted          []models.Alert
	updated           []models.Alert
	markExpiredReturn []models.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: make(map[string]models.Alert)}
}

func (f *fakeStore) FindByIdentifiers(ctx context.Context, sourceID string, identifiers []string) (map[string]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Alert)
	for _, id := range identifiers {
		if a, ok := f.existing[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeStore) BulkInsertAlerts(ctx context.Context, alerts []models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, alerts...)
	for _, a := range alerts {
		f.existing[a.Identifier] = a
	}
	return nil
}

func (f *fakeStore) BulkUpsertAlerts(ctx context.Context, alerts []models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, alerts...)
	for _, a := range alerts {
		f.existing[a.Identifier] = a
	}
	return nil
}

func (f *fakeStore) SetAlertGeometry(ctx context.Context, alertID string, info []models.Info, geometryGeoJSON string) error {
	return nil
}

func (f *fakeStore) MarkExpired(ctx context.Context, now time.Time, sourceID string) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markExpiredReturn, nil
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	newN    int
	updateN int
	expireN int
}

func (b *fakeBroadcaster) PublishAlertNew(alert models.Alert) {
	b.mu.Lock()
	b.newN++
	b.mu.Unlock()
}

func (b *fakeBroadcaster) PublishAlertUpdate(alert models.Alert) {
	b.mu.Lock()
	b.updateN++
	b.mu.Unlock()
}

func (b *fakeBroadcaster) PublishAlertExpire(alert models.Alert) {
	b.mu.Lock()
	b.expireN++
	b.mu.Unlock()
}

type errString string

func (e errString) Error() string { return string(e) }

const errNotFound = errString("source not found")

func testAlertFor(sourceID, identifier string, future time.Time) models.Alert {
	return models.Alert{
		SourceID:   sourceID,
		Identifier: identifier,
		Sent:       time.Now().UTC(),
		Info: []models.Info{{
			Event:   "Test Event",
			Expires: future,
			Area:    []models.Area{{AreaDesc: "Nowhere"}},
		}},
		FetchedAt: time.Now().UTC(),
	}
}

func TestTriggerFetch_InsertsNewAlert(t *testing.T) {
	t.Parallel()
	source := &models.Source{ID: uuid.NewString(), Name: "src", FeedURL: "https://example.gov/feed", Active: true, FetchIntervalSeconds: 60}
	registry := newFakeRegistry(source)
	fetcher := &fakeFetcher{alerts: []models.Alert{testAlertFor(source.ID, "a1", time.Now().Add(time.Hour))}}
	st := newFakeStore()
	bc := &fakeBroadcaster{}

	sched := New(registry, fetcher, st, bc, nil, &models.SchedulerStats{}, Config{})

	if err := sched.TriggerFetch(t.Context(), source.ID); err != nil {
		t.Fatalf("TriggerFetch() error = %v", err)
	}

	st.mu.Lock()
	inserted := len(st.inserted)
	st.mu.Unlock()
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}

	bc.mu.Lock()
	newN := bc.newN
	bc.mu.Unlock()
	if newN != 1 {
		t.Errorf("PublishAlertNew calls = %d, want 1", newN)
	}
}

func TestTriggerFetch_SkipsUnchangedAlert(t *testing.T) {
	t.Parallel()
	source := &models.Source{ID: uuid.NewString(), Name: "src", FeedURL: "https://example.gov/feed", Active: true, FetchIntervalSeconds: 60}
	registry := newFakeRegistry(source)
	alert := testAlertFor(source.ID, "a1", time.Now().Add(time.Hour))
	alert.Active = true

	fetcher := &fakeFetcher{alerts: []models.Alert{alert}}
	st := newFakeStore()
	st.existing["a1"] = alert
	bc := &fakeBroadcaster{}

	sched := New(registry, fetcher, st, bc, nil, &models.SchedulerStats{}, Config{})

	if err := sched.TriggerFetch(t.Context(), source.ID); err != nil {
		t.Fatalf("TriggerFetch() error = %v", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.inserted) != 0 || len(st.updated) != 0 {
		t.Errorf("inserted=%d updated=%d, want 0,0 for an unchanged alert", len(st.inserted), len(st.updated))
	}
}

func TestTriggerFetch_EmitsExpireForAgedOutAlert(t *testing.T) {
	t.Parallel()
	source := &models.Source{ID: uuid.NewString(), Name: "src", FeedURL: "https://example.gov/feed", Active: true, FetchIntervalSeconds: 60}
	registry := newFakeRegistry(source)
	fetcher := &fakeFetcher{}
	st := newFakeStore()
	st.markExpiredReturn = []models.Alert{testAlertFor(source.ID, "aged-out", time.Now().Add(-time.Hour))}
	bc := &fakeBroadcaster{}

	sched := New(registry, fetcher, st, bc, nil, &models.SchedulerStats{}, Config{})

	if err := sched.TriggerFetch(t.Context(), source.ID); err != nil {
		t.Fatalf("TriggerFetch() error = %v", err)
	}

	bc.mu.Lock()
	expireN := bc.expireN
	bc.mu.Unlock()
	if expireN != 1 {
		t.Errorf("PublishAlertExpire calls = %d, want 1", expireN)
	}
}

func TestTriggerFetch_InactiveSourceNoOp(t *testing.T) {
	t.Parallel()
	source := &models.Source{ID: uuid.NewString(), Name: "src", FeedURL: "https://example.gov/feed", Active: false, FetchIntervalSeconds: 60}
	registry := newFakeRegistry(source)
	fetcher := &fakeFetcher{alerts: []models.Alert{testAlertFor(source.ID, "a1", time.Now().Add(time.Hour))}}
	st := newFakeStore()

	sched := New(registry, fetcher, st, &fakeBroadcaster{}, nil, &models.SchedulerStats{}, Config{})

	if err := sched.TriggerFetch(t.Context(), source.ID); err != nil {
		t.Fatalf("TriggerFetch() error = %v", err)
	}

	fetcher.mu.Lock()
	calls := fetcher.calls
	fetcher.mu.Unlock()
	if calls != 0 {
		t.Errorf("fetcher called %d times for an inactive source, want 0", calls)
	}
}

func TestDeriveBaseURL(t *testing.T) {
	t.Parallel()
	s := &models.Source{FeedURL: "https://alerts.example.gov/cap/us.php?x=1"}
	got := deriveBaseURL(s)
	want := "https://alerts.example.gov/cap/"
	if got != want {
		t.Errorf("deriveBaseURL() = %q, want %q", got, want)
	}

	withOverride := &models.Source{FeedURL: "https://a/b", Metadata: map[string]string{"baseUrl": "https://custom/detail/"}}
	if got := deriveBaseURL(withOverride); got != "https://custom/detail/" {
		t.Errorf("deriveBaseURL() override = %q, want %q", got, "https://custom/detail/")
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	source := &models.Source{ID: uuid.NewString(), Name: "src", FeedURL: "https://example.gov/feed", Active: true, FetchIntervalSeconds: 30}
	registry := newFakeRegistry(source)
	fetcher := &fakeFetcher{}
	st := newFakeStore()

	sched := New(registry, fetcher, st, &fakeBroadcaster{}, nil, &models.SchedulerStats{}, Config{})

	if err := sched.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sched.Stop()
}
