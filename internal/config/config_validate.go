// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateZoom(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateRetention(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateZoom validates Zoom credentials and endpoints.
func (c *Config) validateZoom() error {
	if c.Zoom.ClientID == "" {
		return fmt.Errorf("ZOOM_CLIENT_ID is required")
	}
	if c.Zoom.ClientSecret == "" {
		return fmt.Errorf("ZOOM_CLIENT_SECRET is required")
	}
	if c.Zoom.AccountID == "" {
		return fmt.Errorf("ZOOM_ACCOUNT_ID is required")
	}
	if c.Zoom.UserID == "" {
		return fmt.Errorf("ZOOM_USER_ID is required")
	}

	if err := validateHTTPURL(c.Zoom.BaseURL, "ZOOM_BASE_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Zoom.AuthURL, "ZOOM_AUTH_URL"); err != nil {
		return err
	}

	if c.Zoom.MaxRetries < 0 || c.Zoom.MaxRetries > 10 {
		return fmt.Errorf("ZOOM_MAX_RETRIES must be between 0 and 10")
	}
	if c.Zoom.RateLimit <= 0 {
		return fmt.Errorf("ZOOM_RATE_LIMIT must be positive")
	}
	return nil
}

// validateSync validates sync settings.
func (c *Config) validateSync() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK must be positive")
	}
	if c.Sync.Timezone != "" {
		if err := validateTimezone(c.Sync.Timezone); err != nil {
			return fmt.Errorf("SYNC_TIMEZONE is invalid: %w", err)
		}
	}
	return nil
}

// validateRetention validates the retention policy.
func (c *Config) validateRetention() error {
	if c.Retention.Days < 1 || c.Retention.Days > 3650 {
		return fmt.Errorf("RETENTION_DAYS must be between 1 and 3650")
	}
	if c.Retention.PreferredHour < 0 || c.Retention.PreferredHour > 23 {
		return fmt.Errorf("RETENTION_PREFERRED_HOUR must be between 0 and 23")
	}
	return nil
}

// validateServer validates HTTP server settings.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateLogging validates logging settings.
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true, "fatal": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// validateTimezone checks that the value names a loadable IANA timezone.
func validateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return err
	}
	return nil
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// Validates: scheme (http/https), host present, no query params. A path is
// allowed because the Zoom endpoints include one (/v2, /oauth/token).
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
