// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/models"
)

// SourceRegistry is the subset of internal/sources.Registry the scheduler
// depends on.
type SourceRegistry interface {
	GetActive(ctx context.Context) ([]models.Source, error)
	GetByID(ctx context.Context, id string) (*models.Source, error)
	NeedsFetching(s *models.Source, now time.Time) bool
	RecordFetchAttempt(ctx context.Context, id string, now time.Time, success bool, errMsg string) error
}

// Fetcher is the subset of internal/capfeed.Parser the scheduler depends on.
type Fetcher interface {
	FetchAlerts(ctx context.Context, sourceID, feedURL, baseURL string) ([]models.Alert, error)
}

// Store is the subset of internal/store.DB the scheduler depends on.
type Store interface {
	FindByIdentifiers(ctx context.Context, sourceID string, identifiers []string) (map[string]models.Alert, error)
	BulkInsertAlerts(ctx context.Context, alerts []models.Alert) error
	BulkUpsertAlerts(ctx context.Context, alerts []models.Alert) error
	SetAlertGeometry(ctx context.Context, alertID string, info []models.Info, geometryGeoJSON string) error
	MarkExpired(ctx context.Context, now time.Time, sourceID string) ([]models.Alert, error)
}

// Broadcaster is the subset of internal/broadcaster.Hub the scheduler
// depends on to emit lifecycle events.
type Broadcaster interface {
	PublishAlertNew(alert models.Alert)
	PublishAlertUpdate(alert models.Alert)
	PublishAlertExpire(alert models.Alert)
}

// Janitor is the subset of internal/janitor.Janitor the scheduler starts
// its coarse timer alongside.
type Janitor interface {
	Start(ctx context.Context)
	Stop()
}

// sourceTimer tracks one active source's single-shot-looped fetch timer.
type sourceTimer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns one logical timer per active source.
type Scheduler struct {
	registry    SourceRegistry
	fetcher     Fetcher
	store       Store
	broadcaster Broadcaster
	janitor     Janitor
	stats       *models.SchedulerStats

	batchSize            int
	statsLogEveryNCycles int

	mu      sync.Mutex
	timers  map[string]*sourceTimer
	cycleMu sync.Map // source ID -> *sync.Mutex serializing runCycle for that source

	wg sync.WaitGroup
}

// Config bundles the Scheduler's tunables.
type Config struct {
	BatchSize            int
	StatsLogEveryNCycles int
}

// New constructs a Scheduler. Start must be called to begin ticking.
func New(registry SourceRegistry, fetcher Fetcher, store Store, broadcaster Broadcaster, janitor Janitor, stats *models.SchedulerStats, cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	statsEvery := cfg.StatsLogEveryNCycles
	if statsEvery <= 0 {
		statsEvery = 10
	}
	return &Scheduler{
		registry:             registry,
		fetcher:              fetcher,
		store:                store,
		broadcaster:          broadcaster,
		janitor:              janitor,
		stats:                stats,
		batchSize:            batchSize,
		statsLogEveryNCycles: statsEvery,
		timers:               make(map[string]*sourceTimer),
	}
}

// Start snapshots active sources from the registry, creates one timer per
// source, triggers an initial fetch for each, and starts the janitor's
// coarse timer.
func (s *Scheduler) Start(ctx context.Context) error {
	sources, err := s.registry.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: list active sources: %w", err)
	}

	s.mu.Lock()
	for i := range sources {
		s.startSourceTimerLocked(ctx, sources[i])
	}
	s.mu.Unlock()

	if s.janitor != nil {
		s.janitor.Start(ctx)
	}

	logging.Info().Int("sources", len(sources)).Msg("scheduler: started")
	return nil
}

// Stop cancels every source timer and the janitor, then waits for all
// in-flight cycles to finish. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.cancel()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()

	if s.janitor != nil {
		s.janitor.Stop()
	}

	logging.Info().Msg("scheduler: stopped")
}

// startSourceTimerLocked must be called with s.mu held.
func (s *Scheduler) startSourceTimerLocked(ctx context.Context, source models.Source) {
	if _, exists := s.timers[source.ID]; exists {
		return
	}

	timerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.timers[source.ID] = &sourceTimer{cancel: cancel, done: done}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		s.runSourceLoop(timerCtx, source.ID, time.Duration(source.FetchIntervalSeconds)*time.Second)
	}()
}

// runSourceLoop is the single-shot-looped per-source timer: it never
// schedules the next tick until the current cycle has returned, so two
// cycles for the same source can never overlap.
func (s *Scheduler) runSourceLoop(ctx context.Context, sourceID string, interval time.Duration) {
	if interval <= 0 {
		interval = time.Duration(models.MinFetchIntervalSeconds) * time.Second
	}

	s.runCycle(ctx, sourceID)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.runCycle(ctx, sourceID)
			timer.Reset(interval)
		}
	}
}

// TriggerFetch runs one fetch cycle for sourceID immediately, outside its
// regular timer — used by both manual refresh and the fetch-trigger API
// endpoint. An empty sourceID
// means "every active source"; each still runs through the same per-source
// lock as its regular timer; runCycle calls for distinct sources do not wait
// on one another.
func (s *Scheduler) TriggerFetch(ctx context.Context, sourceID string) error {
	if sourceID == "" {
		active, err := s.registry.GetActive(ctx)
		if err != nil {
			return fmt.Errorf("scheduler: trigger fetch for all sources: %w", err)
		}
		for _, source := range active {
			s.runCycle(ctx, source.ID)
		}
		return nil
	}

	if _, err := s.registry.GetByID(ctx, sourceID); err != nil {
		return fmt.Errorf("scheduler: trigger fetch for %s: %w", sourceID, err)
	}
	s.runCycle(ctx, sourceID)
	return nil
}

// UpdateSource re-evaluates a source after an external config change:
// rescheduling it if newly activated, cancelling its timer if deactivated.
func (s *Scheduler) UpdateSource(ctx context.Context, sourceID string) error {
	source, err := s.registry.GetByID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("scheduler: update source %s: %w", sourceID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !source.Active {
		if t, exists := s.timers[sourceID]; exists {
			t.cancel()
			delete(s.timers, sourceID)
		}
		return nil
	}

	if t, exists := s.timers[sourceID]; exists {
		t.cancel()
		delete(s.timers, sourceID)
	}
	s.startSourceTimerLocked(ctx, *source)
	return nil
}

// RemoveSourceInterval cancels and forgets sourceID's timer without
// requiring a registry read (used when the source row is already gone).
func (s *Scheduler) RemoveSourceInterval(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, exists := s.timers[sourceID]; exists {
		t.cancel()
		delete(s.timers, sourceID)
	}
}
