// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package scheduler implements C5: one logical timer per active source,
// each driving an independent fetch cycle that pulls from C2 (capfeed),
// normalizes geometry via C1 (geo), reconciles against C4 (store), and
// emits lifecycle events through a broadcaster. Cycles for different
// sources run concurrently; within one source, the timer loop guarantees
// at most one cycle in flight at a time.
package scheduler
