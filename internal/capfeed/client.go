// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package capfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/capalert/internal/logging"
)

// FetchTimeout bounds a single HTTP round trip at 120 seconds.
const FetchTimeout = 120 * time.Second

// maxRetryAttempts and retryBackoff implement the retry policy: up to 3
// attempts with exponential backoff (1s, 2s, 4s) on network errors or 5xx.
const maxRetryAttempts = 3

var retryBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// client performs paced, retrying, circuit-breaker-guarded HTTP fetches
// against source origins. One client serves every source and keeps a
// circuit breaker per source ID, so a misbehaving source trips only its
// own breaker, grounded on
// internal/eventprocessor's NewCircuitBreaker pattern.
type client struct {
	httpClient *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func newClient() *client {
	return &client{
		httpClient: &http.Client{Timeout: FetchTimeout},
		breakers:   make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

func (c *client) breakerFor(sourceID string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[sourceID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "capfeed-" + sourceID,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	c.breakers[sourceID] = cb
	return cb
}

// Fetch retrieves url's body on behalf of sourceID, retrying network errors
// and 5xx responses with exponential backoff, all guarded by that source's
// circuit breaker. A 404 is returned to the caller unretried so html
// fallback can react to it.
func (c *client) Fetch(ctx context.Context, sourceID, url string) ([]byte, error) {
	cb := c.breakerFor(sourceID)

	body, err := cb.Execute(func() ([]byte, error) {
		return c.fetchWithRetry(ctx, url)
	})
	if err != nil {
		var nf errNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, fmt.Errorf("capfeed: fetch %s: %w", url, err)
	}
	return body, nil
}

func (c *client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff[attempt-1]):
			}
		}

		body, status, err := c.doOnce(ctx, url)
		if err != nil {
			lastErr = err
			logging.Debug().Err(err).Str("url", url).Int("attempt", attempt+1).Msg("capfeed: fetch attempt failed")
			continue
		}
		if status == http.StatusNotFound {
			return nil, errNotFound{url: url}
		}
		if status >= 500 {
			lastErr = fmt.Errorf("capfeed: %s returned %d", url, status)
			logging.Debug().Str("url", url).Int("status", status).Int("attempt", attempt+1).Msg("capfeed: server error, retrying")
			continue
		}
		if status >= 400 {
			return nil, fmt.Errorf("capfeed: %s returned %d", url, status)
		}
		return body, nil
	}
	return nil, lastErr
}

func (c *client) doOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// errNotFound signals a 404 response distinctly from other failures so
// callers can trigger html fallback scraping.
type errNotFound struct{ url string }

func (e errNotFound) Error() string { return fmt.Sprintf("capfeed: %s not found (404)", e.url) }

func isNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}
