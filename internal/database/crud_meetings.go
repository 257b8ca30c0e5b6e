// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meetrics/meetrics/internal/database/query"
	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
)

// MeetingFilter narrows ListMeetings results. Zero values are skipped.
type MeetingFilter struct {
	From  *time.Time
	To    *time.Time
	Topic string
	Limit int
}

// InsertMeeting inserts a meeting, keyed by its upstream UUID.
//
// Uses INSERT ... ON CONFLICT DO NOTHING so re-syncing a date range is
// idempotent: a meeting whose UUID already exists is silently skipped and
// its stored data is never modified. Returns whether a row was inserted.
func (db *DB) InsertMeeting(ctx context.Context, m *models.Meeting) (bool, error) {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO meetings (uuid, topic, start_time, end_time, timezone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO NOTHING`,
		m.UUID, m.Topic, m.StartTime, m.EndTime, m.Timezone)
	metrics.RecordDBQuery("insert", "meetings", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to insert meeting %s: %w", m.UUID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result for meeting %s: %w", m.UUID, err)
	}
	return affected > 0, nil
}

// GetMeeting returns a meeting by its database id.
func (db *DB) GetMeeting(ctx context.Context, id int64) (*models.Meeting, error) {
	return db.getMeetingWhere(ctx, "id = ?", id)
}

// GetMeetingByUUID returns a meeting by its upstream UUID.
func (db *DB) GetMeetingByUUID(ctx context.Context, uuid string) (*models.Meeting, error) {
	return db.getMeetingWhere(ctx, "uuid = ?", uuid)
}

func (db *DB) getMeetingWhere(ctx context.Context, where string, arg interface{}) (*models.Meeting, error) {
	start := time.Now()

	var m models.Meeting
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, uuid, topic, start_time, end_time, timezone, created_at
		FROM meetings WHERE `+where, arg).
		Scan(&m.ID, &m.UUID, &m.Topic, &m.StartTime, &m.EndTime, &m.Timezone, &m.CreatedAt)
	metrics.RecordDBQuery("select", "meetings", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &m, nil
}

// ListMeetings returns meetings matching the filter, most recent first.
func (db *DB) ListMeetings(ctx context.Context, filter MeetingFilter) ([]models.Meeting, error) {
	wb := query.NewWhereBuilder()
	wb.AddDateRange(filter.From, filter.To)
	wb.AddTopicSearch(filter.Topic)
	whereClause, args := wb.Build()

	sqlQuery := fmt.Sprintf(`
		SELECT id, uuid, topic, start_time, end_time, timezone, created_at
		FROM meetings
		WHERE %s
		ORDER BY start_time DESC`, whereClause)
	if filter.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return db.queryMeetings(ctx, sqlQuery, args...)
}

// ListUpcomingMeetings returns meetings that have not yet started, soonest
// first. A meeting already in progress is not upcoming.
func (db *DB) ListUpcomingMeetings(ctx context.Context) ([]models.Meeting, error) {
	return db.queryMeetings(ctx, `
		SELECT id, uuid, topic, start_time, end_time, timezone, created_at
		FROM meetings
		WHERE start_time > CURRENT_TIMESTAMP
		ORDER BY start_time ASC`)
}

// ListMeetingsEndedBefore returns meetings whose end time is before the
// cutoff, oldest first. Retention uses this to find expired sessions.
func (db *DB) ListMeetingsEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Meeting, error) {
	return db.queryMeetings(ctx, `
		SELECT id, uuid, topic, start_time, end_time, timezone, created_at
		FROM meetings
		WHERE end_time < ?
		ORDER BY end_time ASC`, cutoff)
}

func (db *DB) queryMeetings(ctx context.Context, sqlQuery string, args ...interface{}) ([]models.Meeting, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, sqlQuery, args...)
	metrics.RecordDBQuery("select", "meetings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer closeRows(rows)

	meetings := []models.Meeting{}
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.UUID, &m.Topic, &m.StartTime, &m.EndTime, &m.Timezone, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting row: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// DeleteMeeting removes a meeting and its dependent rows in a single
// transaction, child tables first.
func (db *DB) DeleteMeeting(ctx context.Context, id int64) error {
	start := time.Now()
	err := db.deleteMeetingTx(ctx, id)
	metrics.RecordDBQuery("delete", "meetings", time.Since(start), err)
	return err
}

func (db *DB) deleteMeetingTx(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM assistance_values WHERE meeting_id = ?`,
		`DELETE FROM assistance WHERE meeting_id = ?`,
		`DELETE FROM participants WHERE meeting_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete meeting dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
