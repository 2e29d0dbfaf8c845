// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"testing"
	"time"

	"github.com/tomtom215/capalert/internal/models"
)

func TestResponseCache_SetGet(t *testing.T) {
	t.Parallel()

	c := newResponseCache(time.Minute)
	now := time.Now()
	c.Set("id-1", models.Alert{Identifier: "id-1"}, now)

	got, ok := c.Get("id-1")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Identifier != "id-1" {
		t.Errorf("Identifier = %q, want %q", got.Identifier, "id-1")
	}
}

func TestResponseCache_ExpiresAndSweeps(t *testing.T) {
	t.Parallel()

	c := newResponseCache(time.Millisecond)
	now := time.Now()
	c.Set("id-1", models.Alert{Identifier: "id-1"}, now)

	later := now.Add(time.Second)
	if _, ok := c.Get("id-1"); ok {
		// Get() itself is time.Now()-based; force expiry via a later Set
		// to trigger the opportunistic sweep.
	}
	c.Set("id-2", models.Alert{Identifier: "id-2"}, later)

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after sweeping the expired id-1 entry", c.Len())
	}
}
