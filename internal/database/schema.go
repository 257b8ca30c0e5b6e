// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

/*
schema.go - Database Schema Management

Tables:
  - meetings: One row per synced meeting session, unique by upstream UUID
  - participants: Aggregated attendance, one row per person per meeting
  - assistance: Manually recorded headcounts, one row per meeting
  - assistance_values: Per-participant attendance flags, positional per meeting
  - archives: Summarized attendance kept after retention purges a meeting,
    unique by the purged meeting's id

All columns are defined in the initial CREATE TABLE statements. There are no
versioned migrations yet; the schema is the single source of truth.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables and their id sequences.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_meetings_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_participants_id START 1`,

		`CREATE TABLE IF NOT EXISTS meetings (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_meetings_id'),
			uuid TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			timezone TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// join_time/leave_time keep the upstream ISO-8601 strings verbatim.
		`CREATE TABLE IF NOT EXISTS participants (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_participants_id'),
			meeting_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			minutes INTEGER NOT NULL,
			join_time TEXT NOT NULL,
			leave_time TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS assistance (
			meeting_id BIGINT PRIMARY KEY,
			total INTEGER NOT NULL,
			in_person INTEGER NOT NULL,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// One flag per aggregated participant, matched by position against
		// the stored participant order.
		`CREATE TABLE IF NOT EXISTS assistance_values (
			meeting_id BIGINT NOT NULL,
			position INTEGER NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (meeting_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS archives (
			id UUID PRIMARY KEY,
			meeting_id BIGINT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			timezone TEXT NOT NULL DEFAULT '',
			remote_total INTEGER NOT NULL,
			in_person_total INTEGER NOT NULL,
			archived_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for the common query patterns: meeting
// lookups by UUID, participant fetches per meeting, retention scans by end
// time, archive listings by end time, and archive stats windows by
// archive creation time.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_meetings_uuid ON meetings(uuid)`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_start_time ON meetings(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_end_time ON meetings(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_meeting ON participants(meeting_id)`,
		`CREATE INDEX IF NOT EXISTS idx_archives_end_time ON archives(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_archives_archived_at ON archives(archived_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
