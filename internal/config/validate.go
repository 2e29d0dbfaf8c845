// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "fmt"

// Validate checks that required configuration is present and self-consistent.
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("DB_URI is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Scheduler.MinFetchIntervalSeconds < 30 {
		return fmt.Errorf("scheduler.min_fetch_interval_seconds must be >= 30, got %d", c.Scheduler.MinFetchIntervalSeconds)
	}
	if c.Scheduler.MaxItemsPerFetch < 1 {
		return fmt.Errorf("scheduler.max_items_per_fetch must be >= 1, got %d", c.Scheduler.MaxItemsPerFetch)
	}
	if c.Scheduler.BatchSize < 1 {
		return fmt.Errorf("scheduler.batch_size must be >= 1, got %d", c.Scheduler.BatchSize)
	}
	if c.Janitor.RetentionPeriod <= 0 {
		return fmt.Errorf("janitor.retention_period must be positive")
	}
	if c.Broadcaster.SubscriberBufferSize < 1 {
		return fmt.Errorf("broadcaster.subscriber_buffer_size must be >= 1, got %d", c.Broadcaster.SubscriberBufferSize)
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be between 1 and api.max_page_size")
	}
	return nil
}
