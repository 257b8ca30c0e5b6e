// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package retention archives and purges meetings older than the configured
// retention window. Meetings with recorded headcounts leave a summarized
// archive row behind; the detailed data is deleted either way.
package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/database"
	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
)

// DBInterface defines the database operations used by retention.
type DBInterface interface {
	ListMeetingsEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Meeting, error)
	GetAssistance(ctx context.Context, meetingID int64) (*models.Assistance, error)
	InsertArchive(ctx context.Context, a *models.ArchiveRecord) error
	DeleteMeeting(ctx context.Context, id int64) error
	GetArchiveStats(ctx context.Context) (*models.ArchiveStats, error)
}

// Report summarizes one retention run. Meetings are processed independently
// so one failure cannot stop the rest of the batch.
type Report struct {
	Scanned  int      `json:"scanned"`
	Archived int      `json:"archived"`
	Purged   int      `json:"purged"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Manager runs the retention policy, either on its daily schedule or on
// demand via RunRetention.
type Manager struct {
	db  DBInterface
	cfg *config.RetentionConfig

	running  bool
	mu       sync.Mutex
	runMu    sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a retention manager.
func NewManager(db DBInterface, cfg *config.RetentionConfig) *Manager {
	logging.Info().
		Bool("enabled", cfg.Enabled).
		Int("days", cfg.Days).
		Int("preferred_hour", cfg.PreferredHour).
		Msg("Retention manager config loaded")

	return &Manager{
		db:       db,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// RunRetention applies the retention policy once.
//
// Every meeting that ended before the cutoff is scanned. A meeting with
// recorded headcounts is summarized into the archive before its detailed
// rows are purged; a meeting without headcounts is purged outright.
func (m *Manager) RunRetention(ctx context.Context) (*Report, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	start := time.Now()
	cutoff := start.AddDate(0, 0, -m.cfg.Days)

	logging.Info().Time("cutoff", cutoff).Msg("Running retention...")

	expired, err := m.db.ListMeetingsEndedBefore(ctx, cutoff)
	if err != nil {
		metrics.RecordRetentionRun(time.Since(start), 0, 0, 0)
		return nil, fmt.Errorf("failed to list expired meetings: %w", err)
	}

	report := &Report{Scanned: len(expired)}
	for i := range expired {
		archived, err := m.retireMeeting(ctx, &expired[i])
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("meeting %s: %v", expired[i].UUID, err))
			logging.Error().Err(err).Str("uuid", expired[i].UUID).Msg("Failed to retire meeting")
			continue
		}
		if archived {
			report.Archived++
		}
		report.Purged++
	}

	metrics.RecordRetentionRun(time.Since(start), report.Archived, report.Purged, report.Failed)
	logging.Info().
		Int("scanned", report.Scanned).
		Int("archived", report.Archived).
		Int("purged", report.Purged).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("Retention run completed")

	return report, nil
}

// retireMeeting archives a meeting's summary when headcounts exist, then
// purges its stored data. Returns whether an archive row was written.
func (m *Manager) retireMeeting(ctx context.Context, meeting *models.Meeting) (bool, error) {
	archived := false

	assistance, err := m.db.GetAssistance(ctx, meeting.ID)
	switch {
	case err == nil:
		record := &models.ArchiveRecord{
			MeetingID:     meeting.ID,
			Topic:         meeting.Topic,
			StartTime:     meeting.StartTime,
			EndTime:       meeting.EndTime,
			Timezone:      meeting.Timezone,
			RemoteTotal:   assistance.Total - assistance.InPerson,
			InPersonTotal: assistance.InPerson,
		}
		if err := m.db.InsertArchive(ctx, record); err != nil {
			return false, fmt.Errorf("archive failed: %w", err)
		}
		archived = true
	case errors.Is(err, database.ErrNotFound):
		// No headcounts were ever recorded, nothing to archive.
	default:
		return false, fmt.Errorf("assistance lookup failed: %w", err)
	}

	if err := m.db.DeleteMeeting(ctx, meeting.ID); err != nil {
		return archived, fmt.Errorf("purge failed: %w", err)
	}
	return archived, nil
}

// GetArchiveStats returns archive counts for the stats endpoint.
func (m *Manager) GetArchiveStats(ctx context.Context) (*models.ArchiveStats, error) {
	return m.db.GetArchiveStats(ctx)
}
