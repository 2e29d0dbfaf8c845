// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package sources implements the source registry: the business-rule layer
// above internal/store's Source CRUD. It owns two policies the store layer
// does not enforce on its own — refusing to delete the last remaining
// default source, and assigning a new source's ID — and exposes the
// needsFetching/recordFetchAttempt helpers the scheduler drives every tick.
package sources
