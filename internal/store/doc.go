// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package store provides DuckDB-backed persistence for alerts and sources:
// bulk upsert/insert, a unique (sourceId, identifier) index, a spatial
// R-tree index over alert geometry, and the findActive/findByPoint/
// findByIdentifiers/markExpired/deleteOldInactive contracts the scheduler
// and janitor depend on.
//
// Extensions (spatial, icu, json, inet) are installed with a retrying
// INSTALL/LOAD/FORCE-INSTALL cascade and preloaded into an in-memory
// database before the main file is opened, because DuckDB replays its WAL
// immediately on open and extension-backed defaults (e.g. ICU's
// TIMESTAMPTZ handling) must already be available for that replay to
// succeed.
package store
