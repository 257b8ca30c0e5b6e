// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package api provides the HTTP surface of Meetrics: meeting queries,
// manual sync and retention triggers, participant aggregation, poll
// proxying, and assistance capture.
package api

import (
	"context"
	"time"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/database"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/retention"
	syncpkg "github.com/meetrics/meetrics/internal/sync"
	"github.com/meetrics/meetrics/internal/zoom"
)

// DBInterface defines the database operations the handlers use.
type DBInterface interface {
	InsertMeeting(ctx context.Context, m *models.Meeting) (bool, error)
	GetMeeting(ctx context.Context, id int64) (*models.Meeting, error)
	GetMeetingByUUID(ctx context.Context, uuid string) (*models.Meeting, error)
	ListMeetings(ctx context.Context, filter database.MeetingFilter) ([]models.Meeting, error)
	ListUpcomingMeetings(ctx context.Context) ([]models.Meeting, error)
	DeleteMeeting(ctx context.Context, id int64) error
	SaveAssistance(ctx context.Context, a *models.Assistance) error
	GetAssistance(ctx context.Context, meetingID int64) (*models.Assistance, error)
	ListArchives(ctx context.Context, limit int) ([]models.ArchiveRecord, error)
	GetArchiveStats(ctx context.Context) (*models.ArchiveStats, error)
	Ping(ctx context.Context) error
}

// SyncManager defines the sync operations the handlers use.
type SyncManager interface {
	SyncNow(ctx context.Context) (*syncpkg.Report, error)
	SyncRange(ctx context.Context, from, to time.Time) (*syncpkg.Report, error)
	LastSyncTime() time.Time
	EnsureParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error)
	RefreshParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error)
}

// RetentionManager defines the retention operations the handlers use.
type RetentionManager interface {
	RunRetention(ctx context.Context) (*retention.Report, error)
}

// Handler processes HTTP requests for all API endpoints.
type Handler struct {
	db        DBInterface
	sync      SyncManager
	retention RetentionManager
	zoom      zoom.ClientInterface
	config    *config.Config
	startTime time.Time
}

// NewHandler creates an API handler with its dependencies.
func NewHandler(db DBInterface, syncMgr SyncManager, retentionMgr RetentionManager, zoomClient zoom.ClientInterface, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		sync:      syncMgr,
		retention: retentionMgr,
		zoom:      zoomClient,
		config:    cfg,
		startTime: time.Now(),
	}
}
