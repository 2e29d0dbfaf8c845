// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package janitor implements C7: a coarse periodic sweep (default every
// 24h) that repairs active-bit drift across every alert via markExpired,
// then purges inactive alerts past the retention horizon via
// deleteOldInactive. It exists because C5's per-cycle markExpired only
// ever touches the source it just fetched — an alert belonging to a
// source that stops fetching (deactivated, or failing every cycle) would
// otherwise never transition to inactive, and inactive rows would
// accumulate forever without a retention sweep.
package janitor
