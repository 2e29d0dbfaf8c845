// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/capalert/internal/config"
)

// testDBSemaphore fully serializes test database creation: concurrent
// DuckDB CGO connections can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)
var testDBMutex sync.Mutex

// setupTestDB creates an in-memory test database, holding testDBSemaphore
// for the test's entire lifetime so no other test's DuckDB connection runs
// concurrently with it.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{
		URI:       ":memory:",
		MaxMemory: "1GB",
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("failed to create test database: %v", res.err)
		}
		t.Cleanup(func() { _ = res.db.Close() })
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatal("timeout: database creation took longer than 120s")
		return nil
	}
}
