// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
)

// SaveParticipants inserts the aggregated participants of a meeting in a
// single transaction. Callers pass the full aggregation result; a partial
// write is never left behind on failure.
func (db *DB) SaveParticipants(ctx context.Context, meetingID int64, participants []models.Participant) error {
	start := time.Now()
	err := db.saveParticipantsTx(ctx, meetingID, participants)
	metrics.RecordDBQuery("insert", "participants", time.Since(start), err)
	return err
}

func (db *DB) saveParticipantsTx(ctx context.Context, meetingID int64, participants []models.Participant) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin participants transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO participants (meeting_id, user_id, name, minutes, join_time, leave_time)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare participant insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, p := range participants {
		if _, err := stmt.ExecContext(ctx, meetingID, p.UserID, p.Name, p.Minutes, p.JoinTime, p.LeaveTime); err != nil {
			return fmt.Errorf("failed to insert participant %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// GetParticipants returns the stored participants of a meeting, ordered by
// name for stable output.
func (db *DB) GetParticipants(ctx context.Context, meetingID int64) ([]models.Participant, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, meeting_id, user_id, name, minutes, join_time, leave_time
		FROM participants
		WHERE meeting_id = ?
		ORDER BY name ASC`, meetingID)
	metrics.RecordDBQuery("select", "participants", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer closeRows(rows)

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.MeetingID, &p.UserID, &p.Name, &p.Minutes, &p.JoinTime, &p.LeaveTime); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// HasParticipants reports whether a meeting has any stored participants.
// Sync uses this to decide whether aggregation already ran.
func (db *DB) HasParticipants(ctx context.Context, meetingID int64) (bool, error) {
	start := time.Now()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE meeting_id = ?`, meetingID).Scan(&count)
	metrics.RecordDBQuery("select", "participants", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to count participants: %w", err)
	}
	return count > 0, nil
}

// DeleteParticipants removes all stored participants of a meeting. Used by
// forced refresh before re-aggregating and by retention before purging.
func (db *DB) DeleteParticipants(ctx context.Context, meetingID int64) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM participants WHERE meeting_id = ?`, meetingID)
	metrics.RecordDBQuery("delete", "participants", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete participants of meeting %d: %w", meetingID, err)
	}
	return nil
}
