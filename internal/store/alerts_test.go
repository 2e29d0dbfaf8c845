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

func testAlert(sourceID, identifier string, expires time.Time, active bool) models.Alert {
	now := time.Now().UTC()
	return models.Alert{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		Identifier: identifier,
		Sender:     "sender@example.gov",
		Sent:       now,
		Status:     models.StatusActual,
		MsgType:    models.MsgTypeAlert,
		Scope:      models.ScopePublic,
		Info: []models.Info{{
			Category:  []string{"Met"},
			Event:     "Flood Warning",
			Urgency:   models.UrgencyImmediate,
			Severity:  models.SeveritySevere,
			Certainty: models.CertaintyObserved,
			Effective: now,
			Expires:   expires,
			Area:      []models.Area{{AreaDesc: "Test County"}},
		}},
		FetchedAt: now,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestBulkInsertAndFindActive(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	future := time.Now().Add(24 * time.Hour)
	alerts := []models.Alert{testAlert("src-1", "id-1", future, true)}

	if err := db.BulkInsertAlerts(ctx, alerts); err != nil {
		t.Fatalf("BulkInsertAlerts() error = %v", err)
	}

	active, err := db.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("FindActive() returned %d alerts, want 1", len(active))
	}
	if active[0].Identifier != "id-1" {
		t.Errorf("Identifier = %q, want %q", active[0].Identifier, "id-1")
	}
	if active[0].Info[0].Event != "Flood Warning" {
		t.Errorf("Info[0].Event = %q, want %q", active[0].Info[0].Event, "Flood Warning")
	}
}

func TestFindByIdentifiers(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	future := time.Now().Add(time.Hour)
	if err := db.BulkInsertAlerts(ctx, []models.Alert{testAlert("src-2", "a", future, true)}); err != nil {
		t.Fatalf("BulkInsertAlerts() error = %v", err)
	}

	found, err := db.FindByIdentifiers(ctx, "src-2", []string{"a", "b"})
	if err != nil {
		t.Fatalf("FindByIdentifiers() error = %v", err)
	}
	if _, ok := found["a"]; !ok {
		t.Error(`FindByIdentifiers() missing "a"`)
	}
	if _, ok := found["b"]; ok {
		t.Error(`FindByIdentifiers() unexpectedly found "b"`)
	}
}

func TestMarkExpired(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	past := time.Now().Add(-time.Hour)
	if err := db.BulkInsertAlerts(ctx, []models.Alert{testAlert("src-3", "x", past, true)}); err != nil {
		t.Fatalf("BulkInsertAlerts() error = %v", err)
	}

	expired, err := db.MarkExpired(ctx, time.Now(), "")
	if err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("MarkExpired() transitioned %d rows, want 1", len(expired))
	}
	if expired[0].Identifier != "x" {
		t.Errorf("MarkExpired() returned identifier %q, want %q", expired[0].Identifier, "x")
	}
	if expired[0].Active {
		t.Error("MarkExpired() returned row still marked active")
	}

	active, err := db.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("FindActive() returned %d alerts after expiry, want 0", len(active))
	}
}

func TestBulkUpsertAlerts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	future := time.Now().Add(time.Hour)
	alert := testAlert("src-4", "u", future, true)
	if err := db.BulkInsertAlerts(ctx, []models.Alert{alert}); err != nil {
		t.Fatalf("BulkInsertAlerts() error = %v", err)
	}

	alert.Info[0].Headline = "Updated headline"
	if err := db.BulkUpsertAlerts(ctx, []models.Alert{alert}); err != nil {
		t.Fatalf("BulkUpsertAlerts() error = %v", err)
	}

	active, err := db.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("FindActive() returned %d alerts, want 1", len(active))
	}
	if active[0].Info[0].Headline != "Updated headline" {
		t.Errorf("Headline = %q, want %q", active[0].Info[0].Headline, "Updated headline")
	}
}

func TestDeleteOldInactive(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	old := time.Now().Add(-60 * 24 * time.Hour)
	alert := testAlert("src-5", "old", old, false)
	alert.FetchedAt = old
	if err := db.BulkInsertAlerts(ctx, []models.Alert{alert}); err != nil {
		t.Fatalf("BulkInsertAlerts() error = %v", err)
	}

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	n, err := db.DeleteOldInactive(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteOldInactive() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("DeleteOldInactive() removed %d rows, want 1", n)
	}
}
