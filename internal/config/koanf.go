// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/capalert/config.yaml",
	"/etc/capalert/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URI:                    "/data/capalert.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Scheduler: SchedulerConfig{
			MinFetchIntervalSeconds: 30,
			MaxItemsPerFetch:        20,
			BatchSize:               50,
			StatsLogEveryNCycles:    10,
		},
		Janitor: JanitorConfig{
			SweepInterval:   24 * time.Hour,
			RetentionPeriod: 30 * 24 * time.Hour,
		},
		Broadcaster: BroadcasterConfig{
			SubscriberBufferSize: 256,
			NATSEnabled:          false,
			NATSURL:              "nats://127.0.0.1:4222",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources: built-in
// defaults, an optional YAML config file, then environment variables
// (highest priority).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps the two mandated environment variable names,
// plus this implementation's tunables, to koanf config paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"db_uri":                     "database.uri",
		"duckdb_max_memory":          "database.max_memory",
		"duckdb_threads":             "database.threads",
		"http_port":                  "server.port",
		"http_host":                  "server.host",
		"http_timeout":               "server.timeout",
		"environment":                "server.environment",
		"scheduler_min_fetch_secs":   "scheduler.min_fetch_interval_seconds",
		"scheduler_max_items":        "scheduler.max_items_per_fetch",
		"scheduler_batch_size":       "scheduler.batch_size",
		"scheduler_stats_log_every":  "scheduler.stats_log_every_n_cycles",
		"janitor_sweep_interval":     "janitor.sweep_interval",
		"janitor_retention_period":   "janitor.retention_period",
		"broadcaster_buffer_size":    "broadcaster.subscriber_buffer_size",
		"broadcaster_nats_enabled":   "broadcaster.nats_enabled",
		"broadcaster_nats_url":       "broadcaster.nats_url",
		"api_default_page_size":      "api.default_page_size",
		"api_max_page_size":          "api.max_page_size",
		"log_level":                  "logging.level",
		"log_format":                 "logging.format",
		"log_caller":                 "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
