// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "testing"

func TestLoadWithKoanf_Defaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scheduler.MinFetchIntervalSeconds != 30 {
		t.Errorf("Scheduler.MinFetchIntervalSeconds = %d, want 30", cfg.Scheduler.MinFetchIntervalSeconds)
	}
}

func TestLoadWithKoanf_EnvOverride(t *testing.T) {
	t.Setenv("DB_URI", "/tmp/test.duckdb")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Database.URI != "/tmp/test.duckdb" {
		t.Errorf("Database.URI = %q, want %q", cfg.Database.URI, "/tmp/test.duckdb")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestConfig_Validate_RejectsTooLowFetchInterval(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.MinFetchIntervalSeconds = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() error = nil, want error for sub-30s interval")
	}
}

func TestConfig_Validate_RejectsBadPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() error = nil, want error for invalid port")
	}
}
