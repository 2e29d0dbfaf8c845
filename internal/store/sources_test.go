// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/capalert/internal/models"
)

func testSource(name string, isDefault bool) *models.Source {
	now := time.Now().UTC()
	return &models.Source{
		ID:                   uuid.NewString(),
		Name:                 name,
		FeedURL:              "https://example.gov/" + name + "/rss",
		Active:               true,
		Default:              isDefault,
		FetchIntervalSeconds: 60,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestCreateAndGetSource(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	s := testSource("nws", true)
	if err := db.CreateSource(ctx, s); err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	got, err := db.GetSource(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSource() error = %v", err)
	}
	if got.Name != "nws" {
		t.Errorf("Name = %q, want %q", got.Name, "nws")
	}
	if !got.Default {
		t.Error("Default = false, want true")
	}
}

func TestCreateSource_ClearsExistingDefault(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	first := testSource("first", true)
	if err := db.CreateSource(ctx, first); err != nil {
		t.Fatalf("CreateSource(first) error = %v", err)
	}

	second := testSource("second", true)
	if err := db.CreateSource(ctx, second); err != nil {
		t.Fatalf("CreateSource(second) error = %v", err)
	}

	n, err := db.CountDefaultSources(ctx)
	if err != nil {
		t.Fatalf("CountDefaultSources() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("CountDefaultSources() = %d, want 1", n)
	}

	def, err := db.GetDefaultSource(ctx)
	if err != nil {
		t.Fatalf("GetDefaultSource() error = %v", err)
	}
	if def.Name != "second" {
		t.Errorf("default source = %q, want %q", def.Name, "second")
	}
}

func TestDeleteSource_NotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	if err := db.DeleteSource(ctx, "does-not-exist"); err != ErrNotFound {
		t.Fatalf("DeleteSource() error = %v, want ErrNotFound", err)
	}
}

func TestRecordFetchAttempt(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	s := testSource("recorder", false)
	if err := db.CreateSource(ctx, s); err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	now := time.Now().UTC()
	if err := db.RecordFetchAttempt(ctx, s.ID, now, true, ""); err != nil {
		t.Fatalf("RecordFetchAttempt() error = %v", err)
	}

	got, err := db.GetSource(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSource() error = %v", err)
	}
	if got.TotalFetches != 1 || got.SuccessfulFetches != 1 {
		t.Errorf("TotalFetches=%d SuccessfulFetches=%d, want 1,1", got.TotalFetches, got.SuccessfulFetches)
	}
	if got.LastFetchedAt == nil {
		t.Error("LastFetchedAt is nil, want set")
	}
}
