// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import "sync"

// acquireLock returns a per-key mutex, creating it on first use. Callers
// serialize writes that share a key (a (sourceId, identifier) upsert, or
// the source table's "clear every other default" write) without blocking
// writes under a different key.
func (db *DB) acquireLock(key string) *sync.Mutex {
	actual, _ := db.rowLocks.LoadOrStore(key, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu
}

// releaseLock unlocks a mutex obtained from acquireLock. The entry is left
// in the map; row keys are bounded by table cardinality so this does not
// leak unbounded memory.
func (db *DB) releaseLock(mu *sync.Mutex) {
	mu.Unlock()
}
