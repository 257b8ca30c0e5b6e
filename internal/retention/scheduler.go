// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/meetrics/meetrics/internal/logging"
)

// Start begins the daily retention schedule.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("retention manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	if !m.cfg.Enabled {
		logging.Info().Msg("Scheduled retention disabled (RETENTION_ENABLED=false) - manual runs via API still available")
		return nil
	}

	logging.Info().Msg("Starting retention scheduler...")
	m.wg.Add(1)
	go m.runScheduler(ctx)

	return nil
}

// Stop gracefully stops the retention scheduler.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("retention manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping retention scheduler...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Retention scheduler stopped")

	return nil
}

// runScheduler runs the retention loop, firing once per day at the
// preferred hour.
func (m *Manager) runScheduler(ctx context.Context) {
	defer m.wg.Done()

	next := m.calculateNextRunTime()
	logging.Info().Time("next_run", next).Msg("Retention scheduled")

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-timer.C:
			if _, err := m.RunRetention(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled retention failed")
			}

			next = m.calculateNextRunTime()
			logging.Info().Time("next_run", next).Msg("Retention scheduled")
			timer.Reset(time.Until(next))
		}
	}
}

// calculateNextRunTime returns the next occurrence of the preferred hour
// in UTC. A run at or past that hour today schedules for tomorrow.
func (m *Manager) calculateNextRunTime() time.Time {
	now := time.Now().UTC()

	next := time.Date(now.Year(), now.Month(), now.Day(),
		m.cfg.PreferredHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
