// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package models defines data structures used throughout the Meetrics application.
// These models represent meeting sessions, aggregated participants, in-person
// assistance counts, archived attendance summaries, and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Meeting represents a single synced meeting session.
//
// Meetings originate from the Zoom reports API during sync and are uniquely
// identified by the upstream UUID. Start and end times are stored in the
// configured local timezone; Timezone keeps the upstream IANA label so the
// original wall-clock context survives into the archive. EndTime is never
// null: when the upstream report omits it, sync derives it from the start
// time and duration (or a one hour fallback).
type Meeting struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant represents one attendee of a meeting after aggregation.
//
// A single person may appear in the upstream report as many join/leave
// records; aggregation collapses them into one row per display name.
// JoinTime and LeaveTime keep the upstream ISO-8601 strings verbatim. The
// upstream emits uniform UTC timestamps, so ordering them lexicographically
// matches chronological order and avoids a lossy parse/format round trip.
type Participant struct {
	ID        int64  `json:"id"`
	MeetingID int64  `json:"meeting_id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Minutes   int    `json:"minutes"`
	JoinTime  string `json:"join_time"`
	LeaveTime string `json:"leave_time"`
}

// Assistance holds manually captured attendance data for a meeting.
//
// Total is the overall headcount and InPerson the subset physically present;
// the two are independent caller-supplied figures, never cross-checked.
// Remote attendance is always derived as Total - InPerson and never stored.
// Values carries one flag per aggregated participant, matched by position
// against the stored participant order.
type Assistance struct {
	MeetingID  int64     `json:"meeting_id"`
	Total      int       `json:"total"`
	InPerson   int       `json:"in_person"`
	Values     []int     `json:"values"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ArchiveRecord is the summarized attendance kept after a meeting's detailed
// data has been purged by retention. MeetingID is the id of the purged
// session; at most one archive row exists per session, so re-creating and
// re-purging the same session never duplicates its summary.
type ArchiveRecord struct {
	ID            uuid.UUID `json:"id"`
	MeetingID     int64     `json:"meeting_id"`
	Topic         string    `json:"topic"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Timezone      string    `json:"timezone"`
	RemoteTotal   int       `json:"remote_total"`
	InPersonTotal int       `json:"in_person_total"`
	ArchivedAt    time.Time `json:"archived_at"`
}

// ArchiveStats summarizes the archive table for reporting.
type ArchiveStats struct {
	Last90Days int64 `json:"last_90_days"`
	Total      int64 `json:"total"`
}
