// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package janitor

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/capalert/internal/logging"
	"github.com/tomtom215/capalert/internal/metrics"
	"github.com/tomtom215/capalert/internal/models"
)

const (
	defaultSweepInterval   = 24 * time.Hour
	defaultRetentionPeriod = 30 * 24 * time.Hour
)

// Store is the subset of internal/store.DB the janitor depends on.
type Store interface {
	MarkExpired(ctx context.Context, now time.Time, sourceID string) ([]models.Alert, error)
	DeleteOldInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

// Broadcaster is the subset of internal/broadcaster.Hub the janitor depends
// on to emit alert.expire for rows that age out between fetch cycles.
type Broadcaster interface {
	PublishAlertExpire(alert models.Alert)
}

// Config bundles the Janitor's tunables (internal/config.JanitorConfig).
type Config struct {
	SweepInterval   time.Duration
	RetentionPeriod time.Duration
}

// Janitor runs the retention sweep on its own ticker, independent of any
// source's fetch cycle. It satisfies scheduler.Janitor.
type Janitor struct {
	store       Store
	broadcaster Broadcaster
	stats       *models.SchedulerStats

	sweepInterval   time.Duration
	retentionPeriod time.Duration

	mu      sync.Mutex // guards cancel, done and running across Start and Stop
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New constructs a Janitor. Start must be called to begin sweeping.
func New(store Store, broadcaster Broadcaster, stats *models.SchedulerStats, cfg Config) *Janitor {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	retention := cfg.RetentionPeriod
	if retention <= 0 {
		retention = defaultRetentionPeriod
	}
	return &Janitor{
		store:           store,
		broadcaster:     broadcaster,
		stats:           stats,
		sweepInterval:   interval,
		retentionPeriod: retention,
	}
}

// Start runs one sweep immediately, then resumes ticking at sweepInterval
// until Stop is called or ctx is canceled. Safe to call at most once;
// a second call while already running is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})
	j.running = true
	j.mu.Unlock()

	go func() {
		defer close(j.done)
		j.sweep(runCtx)

		ticker := time.NewTicker(j.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				j.sweep(runCtx)
			}
		}
	}()

	logging.Info().Dur("sweepInterval", j.sweepInterval).Dur("retentionPeriod", j.retentionPeriod).Msg("janitor: started")
}

// Stop cancels the sweep loop and waits for any in-flight sweep to finish.
// Idempotent; safe to call even if Start was never called.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	cancel := j.cancel
	done := j.done
	j.running = false
	j.mu.Unlock()

	cancel()
	<-done
	logging.Info().Msg("janitor: stopped")
}

// sweep runs one markExpired + deleteOldInactive pass across every source
// and records the counts to the shared statistics.
func (j *Janitor) sweep(ctx context.Context) {
	start := time.Now()
	now := start.UTC()

	expired, err := j.store.MarkExpired(ctx, now, "")
	expiredCount := int64(len(expired))
	if err != nil {
		logging.Warn().Err(err).Msg("janitor: markExpired failed")
	} else if expiredCount > 0 {
		for _, a := range expired {
			j.broadcaster.PublishAlertExpire(a)
		}
		j.stats.AddExpired(expiredCount)
		metrics.RecordAlertTransition("expired", int(expiredCount))
	}

	cutoff := now.Add(-j.retentionPeriod)
	cleaned, err := j.store.DeleteOldInactive(ctx, cutoff)
	if err != nil {
		logging.Warn().Err(err).Msg("janitor: deleteOldInactive failed")
	} else if cleaned > 0 {
		j.stats.AddCleaned(cleaned)
		metrics.RecordAlertTransition("purged", int(cleaned))
	}

	metrics.JanitorSweepDuration.Observe(time.Since(start).Seconds())
	metrics.JanitorLastSweepTimestamp.Set(float64(now.Unix()))

	logging.Info().Int64("expired", expiredCount).Int64("cleaned", cleaned).Time("cutoff", cutoff).Msg("janitor: sweep complete")
}
