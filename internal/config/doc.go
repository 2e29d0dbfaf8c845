// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config provides centralized configuration management for the CAP
// alert pipeline: DuckDB store settings, the HTTP query API, the scheduler
// and janitor's tunables, and structured logging.
//
// Configuration loads in three layers via koanf v2, lowest to highest
// priority: built-in defaults, an optional YAML config file, then
// environment variables. See koanf.go for the full layering and the
// legacy environment-variable name mapping (DB_URI, HTTP_PORT, ...).
package config
