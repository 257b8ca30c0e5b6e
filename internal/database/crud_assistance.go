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

	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
)

// SaveAssistance upserts the manually recorded attendance of a meeting:
// the headcounts plus the positional per-participant flags. Recording again
// replaces the previous counts, replaces the flag list wholesale, and
// refreshes recorded_at.
func (db *DB) SaveAssistance(ctx context.Context, a *models.Assistance) error {
	start := time.Now()
	err := db.saveAssistanceTx(ctx, a)
	metrics.RecordDBQuery("upsert", "assistance", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save assistance for meeting %d: %w", a.MeetingID, err)
	}
	return nil
}

func (db *DB) saveAssistanceTx(ctx context.Context, a *models.Assistance) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin assistance transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO assistance (meeting_id, total, in_person, recorded_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (meeting_id) DO UPDATE SET
			total = excluded.total,
			in_person = excluded.in_person,
			recorded_at = excluded.recorded_at`,
		a.MeetingID, a.Total, a.InPerson); err != nil {
		return fmt.Errorf("failed to upsert counts: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assistance_values WHERE meeting_id = ?`, a.MeetingID); err != nil {
		return fmt.Errorf("failed to clear previous flags: %w", err)
	}
	for position, value := range a.Values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assistance_values (meeting_id, position, value)
			VALUES (?, ?, ?)`,
			a.MeetingID, position, value); err != nil {
			return fmt.Errorf("failed to insert flag at position %d: %w", position, err)
		}
	}

	return tx.Commit()
}

// GetAssistance returns the recorded attendance of a meeting with its flags
// in positional order, or ErrNotFound when none were recorded.
func (db *DB) GetAssistance(ctx context.Context, meetingID int64) (*models.Assistance, error) {
	start := time.Now()

	var a models.Assistance
	err := db.conn.QueryRowContext(ctx, `
		SELECT meeting_id, total, in_person, recorded_at
		FROM assistance WHERE meeting_id = ?`, meetingID).
		Scan(&a.MeetingID, &a.Total, &a.InPerson, &a.RecordedAt)
	metrics.RecordDBQuery("select", "assistance", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assistance: %w", err)
	}

	values, err := db.getAssistanceValues(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	a.Values = values
	return &a, nil
}

func (db *DB) getAssistanceValues(ctx context.Context, meetingID int64) ([]int, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT value FROM assistance_values
		WHERE meeting_id = ?
		ORDER BY position ASC`, meetingID)
	metrics.RecordDBQuery("select", "assistance_values", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query assistance flags: %w", err)
	}
	defer closeRows(rows)

	values := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan assistance flag: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteAssistance removes the recorded attendance of a meeting, flags
// included. Deleting when none exist is not an error.
func (db *DB) DeleteAssistance(ctx context.Context, meetingID int64) error {
	start := time.Now()
	err := db.deleteAssistanceTx(ctx, meetingID)
	metrics.RecordDBQuery("delete", "assistance", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete assistance of meeting %d: %w", meetingID, err)
	}
	return nil
}

func (db *DB) deleteAssistanceTx(ctx context.Context, meetingID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM assistance_values WHERE meeting_id = ?`,
		`DELETE FROM assistance WHERE meeting_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, meetingID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
