// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package capfeed implements the CAP parser (C2): RSS index fetch,
// identifier extraction, per-identifier detail fetch with response
// caching, namespace-stripping XML decode, HTML fallback scraping, and a
// retrying HTTP client guarded by a per-source circuit breaker.
package capfeed
