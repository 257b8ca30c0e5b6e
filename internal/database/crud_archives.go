// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
)

// InsertArchive stores the summarized attendance of a retired meeting.
// A nil ID is assigned before insert. Archives are unique per meeting id:
// inserting a summary for an already archived meeting is a silent no-op, so
// a session that is purged, re-synced, and purged again keeps one row.
func (db *DB) InsertArchive(ctx context.Context, a *models.ArchiveRecord) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = time.Now()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO archives (id, meeting_id, topic, start_time, end_time, timezone, remote_total, in_person_total, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (meeting_id) DO NOTHING`,
		a.ID, a.MeetingID, a.Topic, a.StartTime, a.EndTime, a.Timezone, a.RemoteTotal, a.InPersonTotal, a.ArchivedAt)
	metrics.RecordDBQuery("insert", "archives", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert archive for %q: %w", a.Topic, err)
	}
	return nil
}

// ListArchives returns archive records, most recently ended first. A limit
// of 0 returns everything.
func (db *DB) ListArchives(ctx context.Context, limit int) ([]models.ArchiveRecord, error) {
	sqlQuery := `
		SELECT id, meeting_id, topic, start_time, end_time, timezone, remote_total, in_person_total, archived_at
		FROM archives
		ORDER BY end_time DESC`
	args := []interface{}{}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, sqlQuery, args...)
	metrics.RecordDBQuery("select", "archives", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query archives: %w", err)
	}
	defer closeRows(rows)

	records := []models.ArchiveRecord{}
	for rows.Next() {
		var a models.ArchiveRecord
		if err := rows.Scan(&a.ID, &a.MeetingID, &a.Topic, &a.StartTime, &a.EndTime, &a.Timezone, &a.RemoteTotal, &a.InPersonTotal, &a.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// GetArchiveStats returns how many archive rows were created within the
// last 90 days alongside the all-time total. The window is measured over
// archived_at; the summarized meetings themselves ended long before it.
func (db *DB) GetArchiveStats(ctx context.Context) (*models.ArchiveStats, error) {
	start := time.Now()

	var stats models.ArchiveStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE archived_at >= ?) AS last_90_days,
			COUNT(*) AS total
		FROM archives`, time.Now().AddDate(0, 0, -90)).
		Scan(&stats.Last90Days, &stats.Total)
	metrics.RecordDBQuery("select", "archives", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute archive stats: %w", err)
	}
	return &stats, nil
}
