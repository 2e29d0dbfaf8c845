// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package geo normalizes raw CAP polygon/circle strings into validated
// GeoJSON suitable for spatial indexing: point parsing, ring closure,
// self-intersection detection with winding-reversal repair, and circle
// tessellation on the WGS-84 sphere. Every function here is pure — no
// storage-engine or alert-model coupling — so the scheduler can call it
// just before persistence without this package knowing what an Alert is.
package geo
