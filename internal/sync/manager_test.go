// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/zoom"
)

// mockDB is an in-memory DBInterface for sync tests.
type mockDB struct {
	meetings     map[string]*models.Meeting
	participants map[int64][]models.Participant
	nextID       int64

	failInsertUUID string

	insertCalls int
	saveCalls   int
	deleteCalls int
}

func newMockDB() *mockDB {
	return &mockDB{
		meetings:     make(map[string]*models.Meeting),
		participants: make(map[int64][]models.Participant),
	}
}

func (db *mockDB) InsertMeeting(ctx context.Context, m *models.Meeting) (bool, error) {
	db.insertCalls++
	if m.UUID == db.failInsertUUID {
		return false, errors.New("simulated insert failure")
	}
	if _, ok := db.meetings[m.UUID]; ok {
		return false, nil
	}
	db.nextID++
	stored := *m
	stored.ID = db.nextID
	db.meetings[m.UUID] = &stored
	return true, nil
}

func (db *mockDB) GetMeetingByUUID(ctx context.Context, uuid string) (*models.Meeting, error) {
	m, ok := db.meetings[uuid]
	if !ok {
		return nil, fmt.Errorf("meeting %s not found", uuid)
	}
	return m, nil
}

func (db *mockDB) HasParticipants(ctx context.Context, meetingID int64) (bool, error) {
	return len(db.participants[meetingID]) > 0, nil
}

func (db *mockDB) GetParticipants(ctx context.Context, meetingID int64) ([]models.Participant, error) {
	return db.participants[meetingID], nil
}

func (db *mockDB) SaveParticipants(ctx context.Context, meetingID int64, participants []models.Participant) error {
	db.saveCalls++
	db.participants[meetingID] = participants
	return nil
}

func (db *mockDB) DeleteParticipants(ctx context.Context, meetingID int64) error {
	db.deleteCalls++
	delete(db.participants, meetingID)
	return nil
}

// mockZoomClient serves canned report data and counts upstream calls.
type mockZoomClient struct {
	meetings     []zoom.Meeting
	participants map[string][]zoom.Participant

	listMeetingsCalls     int
	listParticipantsCalls int
}

func (c *mockZoomClient) ListPastMeetings(ctx context.Context, from, to time.Time) ([]zoom.Meeting, error) {
	c.listMeetingsCalls++
	return c.meetings, nil
}

func (c *mockZoomClient) ListParticipants(ctx context.Context, meetingUUID string) ([]zoom.Participant, error) {
	c.listParticipantsCalls++
	return c.participants[meetingUUID], nil
}

func (c *mockZoomClient) GetPollResults(ctx context.Context, meetingUUID string) (*zoom.PollResults, error) {
	return &zoom.PollResults{UUID: meetingUUID, Respondents: []zoom.PollRespondent{}}, nil
}

func newTestManager(db DBInterface, client zoom.ClientInterface, timezone string) *Manager {
	return NewManager(db, client, &config.SyncConfig{
		Enabled:  false,
		Interval: time.Hour,
		Lookback: 30 * 24 * time.Hour,
		Timezone: timezone,
	})
}
