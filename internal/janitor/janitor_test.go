// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package janitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/capalert/internal/models"
)

type fakeStore struct {
	mu              sync.Mutex
	markExpiredN    int
	expiredReturn   int64
	deleteN         int
	cleanedReturn   int64
	lastCutoff      time.Time
	markExpiredDone chan struct{}
}

func (f *fakeStore) MarkExpired(ctx context.Context, now time.Time, sourceID string) ([]models.Alert, error) {
	f.mu.Lock()
	f.markExpiredN++
	n := f.markExpiredN
	f.mu.Unlock()
	if f.markExpiredDone != nil && n == 1 {
		close(f.markExpiredDone)
	}
	alerts := make([]models.Alert, f.expiredReturn)
	return alerts, nil
}

func (f *fakeStore) DeleteOldInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteN++
	f.lastCutoff = cutoff
	return f.cleanedReturn, nil
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	expired []models.Alert
}

func (f *fakeBroadcaster) PublishAlertExpire(alert models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, alert)
}

func TestStart_RunsImmediateSweep(t *testing.T) {
	t.Parallel()
	st := &fakeStore{expiredReturn: 3, cleanedReturn: 2, markExpiredDone: make(chan struct{})}
	stats := &models.SchedulerStats{}
	j := New(st, &fakeBroadcaster{}, stats, Config{SweepInterval: time.Hour, RetentionPeriod: 30 * 24 * time.Hour})

	j.Start(t.Context())
	defer j.Stop()

	select {
	case <-st.markExpiredDone:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial sweep")
	}

	snap := stats.Snapshot()
	if snap.AlertsExpired != 3 {
		t.Errorf("AlertsExpired = %d, want 3", snap.AlertsExpired)
	}
	if snap.AlertsCleaned != 2 {
		t.Errorf("AlertsCleaned = %d, want 2", snap.AlertsCleaned)
	}
}

func TestStart_UsesRetentionPeriodAsCutoff(t *testing.T) {
	t.Parallel()
	st := &fakeStore{markExpiredDone: make(chan struct{})}
	j := New(st, &fakeBroadcaster{}, &models.SchedulerStats{}, Config{SweepInterval: time.Hour, RetentionPeriod: time.Hour})

	j.Start(t.Context())
	defer j.Stop()

	select {
	case <-st.markExpiredDone:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial sweep")
	}

	st.mu.Lock()
	cutoff := st.lastCutoff
	st.mu.Unlock()

	age := time.Since(cutoff)
	if age < 55*time.Minute || age > 65*time.Minute {
		t.Errorf("cutoff age = %v, want ~1h", age)
	}
}

func TestStop_IsIdempotentAndSafeWithoutStart(t *testing.T) {
	t.Parallel()
	j := New(&fakeStore{}, &fakeBroadcaster{}, &models.SchedulerStats{}, Config{})
	j.Stop()
	j.Stop()
}

func TestStart_DefaultsAppliedWhenConfigZero(t *testing.T) {
	t.Parallel()
	j := New(&fakeStore{}, &fakeBroadcaster{}, &models.SchedulerStats{}, Config{})
	if j.sweepInterval != defaultSweepInterval {
		t.Errorf("sweepInterval = %v, want %v", j.sweepInterval, defaultSweepInterval)
	}
	if j.retentionPeriod != defaultRetentionPeriod {
		t.Errorf("retentionPeriod = %v, want %v", j.retentionPeriod, defaultRetentionPeriod)
	}
}
