// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"sync"
	"time"

	"github.com/tomtom215/capalert/internal/models"
)

// DefaultCacheTTL is the per-identifier response cache lifetime: repeated
// detail fetches for the same identifier within this window are served
// from memory rather than hitting the source again.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	alert   models.Alert
	expires time.Time
}

// responseCache is a per-identifier TTL cache of decoded detail responses.
// Every Set opportunistically sweeps expired entries rather than running a
// background goroutine, since fetch volume per source is low.
type responseCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &responseCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *responseCache) Get(identifier string) (models.Alert, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[identifier]
	if !ok || time.Now().After(e.expires) {
		return models.Alert{}, false
	}
	return e.alert, true
}

func (c *responseCache) Set(identifier string, alert models.Alert, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[identifier] = cacheEntry{alert: alert, expires: now.Add(c.ttl)}
	c.sweepLocked(now)
}

// sweepLocked drops every entry that has already expired. Caller must hold
// c.mu.
func (c *responseCache) sweepLocked(now time.Time) {
	for id, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, id)
		}
	}
}

func (c *responseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
