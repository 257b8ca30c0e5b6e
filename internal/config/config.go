// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Zoom      ZoomConfig      `koanf:"zoom"`
	Database  DatabaseConfig  `koanf:"database"`
	Sync      SyncConfig      `koanf:"sync"`
	Retention RetentionConfig `koanf:"retention"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ZoomConfig holds Zoom server-to-server OAuth credentials and client tuning.
//
// Environment Variables:
//   - ZOOM_BASE_URL: Zoom REST API base (default: https://api.zoom.us/v2)
//   - ZOOM_AUTH_URL: OAuth token endpoint (default: https://zoom.us/oauth/token)
//   - ZOOM_CLIENT_ID / ZOOM_CLIENT_SECRET: Server-to-server OAuth app credentials
//   - ZOOM_ACCOUNT_ID: Zoom account the app is installed on
//   - ZOOM_USER_ID: User (email or id) whose past meetings are synced
type ZoomConfig struct {
	BaseURL      string `koanf:"base_url"`
	AuthURL      string `koanf:"auth_url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	AccountID    string `koanf:"account_id"`
	UserID       string `koanf:"user_id"`

	// Timeout bounds each HTTP request to the Zoom API.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries and RetryBaseDelay control retry with exponential backoff
	// for transient upstream failures (5xx, 429).
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RateLimit caps outbound requests per second; RateBurst is the
	// limiter's burst size. Zoom enforces per-account API rate limits.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// DatabaseConfig holds DuckDB configuration.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" creates an in-memory
	// database, used by tests.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB's thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SyncConfig holds periodic meeting sync settings.
type SyncConfig struct {
	// Enabled controls whether the background sync manager runs.
	// Manual sync via the API works regardless.
	Enabled bool `koanf:"enabled"`

	// Interval between scheduled sync runs.
	Interval time.Duration `koanf:"interval"`

	// Lookback is how far back each scheduled run queries past meetings.
	Lookback time.Duration `koanf:"lookback"`

	// Timezone is the IANA zone meeting times are converted into before
	// storage (e.g. "Europe/Madrid"). Empty means UTC.
	Timezone string `koanf:"timezone"`
}

// RetentionConfig holds the archive-and-purge policy for old meetings.
type RetentionConfig struct {
	// Enabled controls the daily scheduled run. Manual runs via the API
	// work regardless.
	Enabled bool `koanf:"enabled"`

	// Days is the retention window; meetings ending earlier than
	// now minus Days are archived and purged.
	Days int `koanf:"days"`

	// PreferredHour is the UTC hour of day for the scheduled run.
	PreferredHour int `koanf:"preferred_hour"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
