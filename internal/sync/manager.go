// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

/*
manager.go - Sync Manager Lifecycle and Orchestration

This file contains the core sync manager struct, initialization, and
lifecycle methods for orchestrating meeting synchronization from the Zoom
report API into the database.

Lifecycle Methods:
  - NewManager(): Initialize manager with configuration and dependencies
  - Start(): Begin the periodic sync loop
  - Stop(): Gracefully shut down and wait for completion
  - SyncNow(): Manual sync execution (mutex-protected)
  - LastSyncTime(): Query last successful sync timestamp

Thread Safety:
  - syncMu: Prevents concurrent sync execution
  - mu: Protects shared state (running, lastSync)
  - The sync loop uses a WaitGroup for coordinated shutdown
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/zoom"
)

// DBInterface defines the database operations used by sync and aggregation.
type DBInterface interface {
	InsertMeeting(ctx context.Context, m *models.Meeting) (bool, error)
	GetMeetingByUUID(ctx context.Context, uuid string) (*models.Meeting, error)
	HasParticipants(ctx context.Context, meetingID int64) (bool, error)
	GetParticipants(ctx context.Context, meetingID int64) ([]models.Participant, error)
	SaveParticipants(ctx context.Context, meetingID int64, participants []models.Participant) error
	DeleteParticipants(ctx context.Context, meetingID int64) error
}

// Manager orchestrates periodic meeting synchronization from Zoom.
type Manager struct {
	db       DBInterface
	client   zoom.ClientInterface
	cfg      *config.SyncConfig
	location *time.Location

	lastSync time.Time
	running  bool
	mu       sync.RWMutex
	syncMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a sync manager.
//
// The configured timezone must already be validated; an unknown zone falls
// back to UTC with a warning rather than failing startup.
func NewManager(db DBInterface, client zoom.ClientInterface, cfg *config.SyncConfig) *Manager {
	location := time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logging.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("Unknown timezone, using UTC")
		} else {
			location = loc
		}
	}

	logging.Info().
		Bool("enabled", cfg.Enabled).
		Dur("interval", cfg.Interval).
		Dur("lookback", cfg.Lookback).
		Str("timezone", location.String()).
		Msg("Sync manager config loaded")

	return &Manager{
		db:       db,
		client:   client,
		cfg:      cfg,
		location: location,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic synchronization loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	if !m.cfg.Enabled {
		logging.Info().Msg("Scheduled sync disabled (SYNC_ENABLED=false) - manual sync via API still available")
		return nil
	}

	logging.Info().Msg("Starting sync manager...")

	// Add to the WaitGroup before starting the goroutines so Stop cannot
	// Wait before every Add completed.
	m.wg.Add(2)

	// Initial sync runs in the background to avoid blocking startup.
	go func() {
		defer m.wg.Done()
		if _, err := m.SyncNow(ctx); err != nil {
			logging.Warn().Err(err).Msg("Initial sync failed (will retry on next interval)")
		}
	}()

	go m.syncLoop(ctx)

	return nil
}

// Stop gracefully stops the synchronization loop.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")

	return nil
}

// LastSyncTime returns the timestamp of the last successful sync.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// SyncNow synchronizes the configured lookback window immediately.
// Concurrent calls serialize on the sync mutex.
func (m *Manager) SyncNow(ctx context.Context) (*Report, error) {
	now := time.Now()
	return m.SyncRange(ctx, now.Add(-m.cfg.Lookback), now)
}

// SyncRange synchronizes a specific date range.
func (m *Manager) SyncRange(ctx context.Context, from, to time.Time) (*Report, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	report, err := m.syncMeetings(ctx, from, to)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	return report, nil
}

// syncLoop runs the periodic synchronization.
func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			if _, err := m.SyncNow(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled sync failed")
			}
		}
	}
}
