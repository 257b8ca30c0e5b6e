// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func insertTestMeeting(t *testing.T, db *DB, uuid string, end time.Time) *models.Meeting {
	t.Helper()

	m := &models.Meeting{
		UUID:      uuid,
		Topic:     "Weekly Standup",
		StartTime: end.Add(-time.Hour),
		EndTime:   end,
		Timezone:  "Europe/Paris",
	}
	inserted, err := db.InsertMeeting(context.Background(), m)
	if err != nil {
		t.Fatalf("InsertMeeting() failed: %v", err)
	}
	if !inserted {
		t.Fatalf("InsertMeeting() skipped new uuid %s", uuid)
	}

	stored, err := db.GetMeetingByUUID(context.Background(), uuid)
	if err != nil {
		t.Fatalf("GetMeetingByUUID() failed: %v", err)
	}
	return stored
}

func TestInsertMeetingIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := &models.Meeting{
		UUID:      "uuid-1",
		Topic:     "Standup",
		StartTime: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC),
	}

	inserted, err := db.InsertMeeting(ctx, m)
	if err != nil {
		t.Fatalf("InsertMeeting() failed: %v", err)
	}
	if !inserted {
		t.Error("first InsertMeeting() reported skip, want insert")
	}

	// Same UUID again must be a silent no-op, even with different fields.
	dup := &models.Meeting{
		UUID:      "uuid-1",
		Topic:     "Renamed",
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
	inserted, err = db.InsertMeeting(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate InsertMeeting() failed: %v", err)
	}
	if inserted {
		t.Error("duplicate InsertMeeting() reported insert, want skip")
	}

	stored, err := db.GetMeetingByUUID(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("GetMeetingByUUID() failed: %v", err)
	}
	if stored.Topic != "Standup" {
		t.Errorf("stored topic = %q, want original Standup", stored.Topic)
	}
}

func TestMeetingTimezoneRoundTrip(t *testing.T) {
	db := newTestDB(t)

	m := insertTestMeeting(t, db, "uuid-tz", time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC))
	if m.Timezone != "Europe/Paris" {
		t.Errorf("stored timezone = %q, want Europe/Paris", m.Timezone)
	}
}

func TestListUpcomingMeetings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Ended an hour ago.
	insertTestMeeting(t, db, "uuid-past", time.Now().Add(-time.Hour))
	// Started an hour ago, still running for another hour.
	insertTestMeeting(t, db, "uuid-running", time.Now().Add(time.Hour))
	// Starts tomorrow.
	insertTestMeeting(t, db, "uuid-future", time.Now().Add(25*time.Hour))

	upcoming, err := db.ListUpcomingMeetings(ctx)
	if err != nil {
		t.Fatalf("ListUpcomingMeetings() failed: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].UUID != "uuid-future" {
		t.Errorf("upcoming = %+v, want only the meeting that has not started", upcoming)
	}
}

func TestGetMeetingNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetMeeting(context.Background(), 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeeting() error = %v, want ErrNotFound", err)
	}
}

func TestListMeetingsFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestMeeting(t, db, "uuid-jul", time.Date(2026, 7, 10, 11, 0, 0, 0, time.UTC))
	insertTestMeeting(t, db, "uuid-aug", time.Date(2026, 8, 10, 11, 0, 0, 0, time.UTC))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	meetings, err := db.ListMeetings(ctx, MeetingFilter{From: &from})
	if err != nil {
		t.Fatalf("ListMeetings() failed: %v", err)
	}
	if len(meetings) != 1 || meetings[0].UUID != "uuid-aug" {
		t.Errorf("ListMeetings(from Aug) = %+v, want only uuid-aug", meetings)
	}

	meetings, err = db.ListMeetings(ctx, MeetingFilter{Topic: "standup"})
	if err != nil {
		t.Fatalf("ListMeetings() failed: %v", err)
	}
	if len(meetings) != 2 {
		t.Errorf("ListMeetings(topic standup) = %d meetings, want 2", len(meetings))
	}
}

func TestListMeetingsEndedBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestMeeting(t, db, "uuid-old", time.Now().AddDate(0, 0, -120))
	insertTestMeeting(t, db, "uuid-recent", time.Now().AddDate(0, 0, -5))

	cutoff := time.Now().AddDate(0, 0, -90)
	expired, err := db.ListMeetingsEndedBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListMeetingsEndedBefore() failed: %v", err)
	}
	if len(expired) != 1 || expired[0].UUID != "uuid-old" {
		t.Errorf("expired = %+v, want only uuid-old", expired)
	}
}

func TestParticipantsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := insertTestMeeting(t, db, "uuid-1", time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC))

	has, err := db.HasParticipants(ctx, m.ID)
	if err != nil {
		t.Fatalf("HasParticipants() failed: %v", err)
	}
	if has {
		t.Error("HasParticipants() = true before save")
	}

	participants := []models.Participant{
		{UserID: "u1", Name: "Ana", Minutes: 55, JoinTime: "2026-08-20T10:00:00Z", LeaveTime: "2026-08-20T10:55:00Z"},
		{UserID: "u2", Name: "Bruno", Minutes: 60, JoinTime: "2026-08-20T10:00:00Z", LeaveTime: "2026-08-20T11:00:00Z"},
	}
	if err := db.SaveParticipants(ctx, m.ID, participants); err != nil {
		t.Fatalf("SaveParticipants() failed: %v", err)
	}

	stored, err := db.GetParticipants(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetParticipants() failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("GetParticipants() = %d rows, want 2", len(stored))
	}
	if stored[0].Name != "Ana" || stored[0].Minutes != 55 {
		t.Errorf("stored[0] = %+v", stored[0])
	}
	if stored[0].JoinTime != "2026-08-20T10:00:00Z" {
		t.Errorf("join time = %q, want verbatim upstream string", stored[0].JoinTime)
	}

	if err := db.DeleteParticipants(ctx, m.ID); err != nil {
		t.Fatalf("DeleteParticipants() failed: %v", err)
	}
	has, err = db.HasParticipants(ctx, m.ID)
	if err != nil {
		t.Fatalf("HasParticipants() failed: %v", err)
	}
	if has {
		t.Error("HasParticipants() = true after delete")
	}
}

func TestAssistanceUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := insertTestMeeting(t, db, "uuid-1", time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC))

	if _, err := db.GetAssistance(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAssistance() before save error = %v, want ErrNotFound", err)
	}

	if err := db.SaveAssistance(ctx, &models.Assistance{
		MeetingID: m.ID, Total: 50, InPerson: 30, Values: []int{1, 0, 1, 1},
	}); err != nil {
		t.Fatalf("SaveAssistance() failed: %v", err)
	}

	// Re-recording replaces the counts and the flag list wholesale.
	if err := db.SaveAssistance(ctx, &models.Assistance{
		MeetingID: m.ID, Total: 52, InPerson: 31, Values: []int{0, 1},
	}); err != nil {
		t.Fatalf("second SaveAssistance() failed: %v", err)
	}

	a, err := db.GetAssistance(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetAssistance() failed: %v", err)
	}
	if a.Total != 52 || a.InPerson != 31 {
		t.Errorf("assistance = %+v, want total 52 in person 31", a)
	}
	if len(a.Values) != 2 || a.Values[0] != 0 || a.Values[1] != 1 {
		t.Errorf("values = %v, want [0 1] in positional order", a.Values)
	}
}

func TestDeleteMeetingCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := insertTestMeeting(t, db, "uuid-1", time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC))
	if err := db.SaveParticipants(ctx, m.ID, []models.Participant{
		{UserID: "u1", Name: "Ana", Minutes: 10, JoinTime: "a", LeaveTime: "b"},
	}); err != nil {
		t.Fatalf("SaveParticipants() failed: %v", err)
	}
	if err := db.SaveAssistance(ctx, &models.Assistance{MeetingID: m.ID, Total: 5, InPerson: 2, Values: []int{1}}); err != nil {
		t.Fatalf("SaveAssistance() failed: %v", err)
	}

	if err := db.DeleteMeeting(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMeeting() failed: %v", err)
	}

	if _, err := db.GetMeeting(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeeting() after delete error = %v, want ErrNotFound", err)
	}
	has, err := db.HasParticipants(ctx, m.ID)
	if err != nil {
		t.Fatalf("HasParticipants() failed: %v", err)
	}
	if has {
		t.Error("participants survived meeting delete")
	}
	if _, err := db.GetAssistance(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAssistance() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteMeeting(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteMeeting() error = %v, want ErrNotFound", err)
	}
}

func TestArchiveStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Retention only archives meetings past the cutoff, so every row has an
	// end time older than 90 days. The stats window counts by archived_at.
	records := []models.ArchiveRecord{
		{
			MeetingID:     1,
			Topic:         "Archived Long Ago",
			StartTime:     time.Now().AddDate(0, 0, -300).Add(-time.Hour),
			EndTime:       time.Now().AddDate(0, 0, -300),
			RemoteTotal:   20,
			InPersonTotal: 30,
			ArchivedAt:    time.Now().AddDate(0, 0, -200),
		},
		{
			MeetingID:     2,
			Topic:         "Archived Yesterday",
			StartTime:     time.Now().AddDate(0, 0, -100).Add(-time.Hour),
			EndTime:       time.Now().AddDate(0, 0, -100),
			RemoteTotal:   5,
			InPersonTotal: 10,
			ArchivedAt:    time.Now().AddDate(0, 0, -1),
		},
	}
	for i := range records {
		if err := db.InsertArchive(ctx, &records[i]); err != nil {
			t.Fatalf("InsertArchive() failed: %v", err)
		}
	}

	stats, err := db.GetArchiveStats(ctx)
	if err != nil {
		t.Fatalf("GetArchiveStats() failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("stats.Total = %d, want 2", stats.Total)
	}
	if stats.Last90Days != 1 {
		t.Errorf("stats.Last90Days = %d, want 1 freshly archived row", stats.Last90Days)
	}

	archives, err := db.ListArchives(ctx, 0)
	if err != nil {
		t.Fatalf("ListArchives() failed: %v", err)
	}
	if len(archives) != 2 {
		t.Fatalf("ListArchives() = %d rows, want 2", len(archives))
	}
	if archives[0].Topic != "Archived Yesterday" {
		t.Errorf("archives[0].Topic = %q, want most recently ended first", archives[0].Topic)
	}
	if archives[0].Timezone != "" || archives[0].MeetingID != 2 {
		t.Errorf("archives[0] = %+v, want meeting id 2 with empty timezone", archives[0])
	}
}

func TestInsertArchiveUniquePerMeeting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	end := time.Now().AddDate(0, 0, -100)
	record := models.ArchiveRecord{
		MeetingID:     7,
		Topic:         "Recurring Session",
		StartTime:     end.Add(-time.Hour),
		EndTime:       end,
		Timezone:      "Europe/Paris",
		RemoteTotal:   20,
		InPersonTotal: 30,
	}
	if err := db.InsertArchive(ctx, &record); err != nil {
		t.Fatalf("InsertArchive() failed: %v", err)
	}

	// A purged session that gets re-synced and purged again must not grow a
	// second summary row.
	again := record
	again.ID = uuid.Nil
	if err := db.InsertArchive(ctx, &again); err != nil {
		t.Fatalf("second InsertArchive() failed: %v", err)
	}

	archives, err := db.ListArchives(ctx, 0)
	if err != nil {
		t.Fatalf("ListArchives() failed: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("ListArchives() = %d rows, want 1", len(archives))
	}
	got := archives[0]
	if got.MeetingID != 7 || got.Timezone != "Europe/Paris" || !got.StartTime.Before(got.EndTime) {
		t.Errorf("archive = %+v, want original session id, timezone and start/end", got)
	}
}
