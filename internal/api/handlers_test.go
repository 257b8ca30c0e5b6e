// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/database"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/retention"
	syncpkg "github.com/meetrics/meetrics/internal/sync"
	"github.com/meetrics/meetrics/internal/zoom"
)

// mockDB backs the handlers with in-memory state.
type mockDB struct {
	meetings   map[int64]*models.Meeting
	assistance map[int64]*models.Assistance
	archives   []models.ArchiveRecord
	nextID     int64
	pingErr    error
}

func newMockDB() *mockDB {
	return &mockDB{
		meetings:   make(map[int64]*models.Meeting),
		assistance: make(map[int64]*models.Assistance),
	}
}

func (db *mockDB) addMeeting(uuid, topic string) *models.Meeting {
	db.nextID++
	m := &models.Meeting{
		ID:        db.nextID,
		UUID:      uuid,
		Topic:     topic,
		StartTime: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}
	db.meetings[m.ID] = m
	return m
}

func (db *mockDB) InsertMeeting(ctx context.Context, m *models.Meeting) (bool, error) {
	for _, existing := range db.meetings {
		if existing.UUID == m.UUID {
			return false, nil
		}
	}
	stored := db.addMeeting(m.UUID, m.Topic)
	stored.StartTime = m.StartTime
	stored.EndTime = m.EndTime
	stored.Timezone = m.Timezone
	return true, nil
}

func (db *mockDB) GetMeeting(ctx context.Context, id int64) (*models.Meeting, error) {
	m, ok := db.meetings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return m, nil
}

func (db *mockDB) GetMeetingByUUID(ctx context.Context, uuid string) (*models.Meeting, error) {
	for _, m := range db.meetings {
		if m.UUID == uuid {
			return m, nil
		}
	}
	return nil, database.ErrNotFound
}

func (db *mockDB) ListMeetings(ctx context.Context, filter database.MeetingFilter) ([]models.Meeting, error) {
	meetings := []models.Meeting{}
	for _, m := range db.meetings {
		meetings = append(meetings, *m)
	}
	return meetings, nil
}

func (db *mockDB) ListUpcomingMeetings(ctx context.Context) ([]models.Meeting, error) {
	return []models.Meeting{}, nil
}

func (db *mockDB) DeleteMeeting(ctx context.Context, id int64) error {
	if _, ok := db.meetings[id]; !ok {
		return database.ErrNotFound
	}
	delete(db.meetings, id)
	delete(db.assistance, id)
	return nil
}

func (db *mockDB) SaveAssistance(ctx context.Context, a *models.Assistance) error {
	a.RecordedAt = time.Now()
	db.assistance[a.MeetingID] = a
	return nil
}

func (db *mockDB) GetAssistance(ctx context.Context, meetingID int64) (*models.Assistance, error) {
	a, ok := db.assistance[meetingID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return a, nil
}

func (db *mockDB) ListArchives(ctx context.Context, limit int) ([]models.ArchiveRecord, error) {
	return db.archives, nil
}

func (db *mockDB) GetArchiveStats(ctx context.Context) (*models.ArchiveStats, error) {
	return &models.ArchiveStats{Last90Days: 1, Total: int64(len(db.archives))}, nil
}

func (db *mockDB) Ping(ctx context.Context) error {
	return db.pingErr
}

// mockSync satisfies SyncManager.
type mockSync struct {
	report       *syncpkg.Report
	participants []models.Participant
	ensureCalls  int
	refreshCalls int
	lastFrom     time.Time
	lastTo       time.Time
}

func (s *mockSync) SyncNow(ctx context.Context) (*syncpkg.Report, error) {
	return s.report, nil
}

func (s *mockSync) SyncRange(ctx context.Context, from, to time.Time) (*syncpkg.Report, error) {
	s.lastFrom, s.lastTo = from, to
	return s.report, nil
}

func (s *mockSync) LastSyncTime() time.Time {
	return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
}

func (s *mockSync) EnsureParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error) {
	s.ensureCalls++
	return s.participants, nil
}

func (s *mockSync) RefreshParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error) {
	s.refreshCalls++
	return s.participants, nil
}

// mockRetention satisfies RetentionManager.
type mockRetention struct {
	report *retention.Report
	err    error
	calls  int
}

func (m *mockRetention) RunRetention(ctx context.Context) (*retention.Report, error) {
	m.calls++
	return m.report, m.err
}

// mockZoom serves poll results.
type mockZoom struct {
	polls map[string]*zoom.PollResults
}

func (c *mockZoom) ListPastMeetings(ctx context.Context, from, to time.Time) ([]zoom.Meeting, error) {
	return nil, errors.New("not implemented")
}

func (c *mockZoom) ListParticipants(ctx context.Context, meetingUUID string) ([]zoom.Participant, error) {
	return nil, errors.New("not implemented")
}

func (c *mockZoom) GetPollResults(ctx context.Context, meetingUUID string) (*zoom.PollResults, error) {
	if results, ok := c.polls[meetingUUID]; ok {
		return results, nil
	}
	return &zoom.PollResults{UUID: meetingUUID, Respondents: []zoom.PollRespondent{}}, nil
}

type testEnv struct {
	db        *mockDB
	sync      *mockSync
	retention *mockRetention
	zoom      *mockZoom
	server    http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		db:        newMockDB(),
		sync:      &mockSync{report: &syncpkg.Report{Fetched: 3, Inserted: 2, Skipped: 1}},
		retention: &mockRetention{report: &retention.Report{Scanned: 2, Archived: 1, Purged: 2}},
		zoom:      &mockZoom{polls: map[string]*zoom.PollResults{}},
	}

	cfg := &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     300,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
		},
	}

	handler := NewHandler(env.db, env.sync, env.retention, env.zoom, cfg)
	env.server = NewRouter(handler, &cfg.API).Setup()
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return &resp
}

func TestMeetingsList(t *testing.T) {
	env := newTestEnv()
	env.db.addMeeting("uuid-1", "Standup")

	rec := env.do(t, http.MethodGet, "/api/v1/meetings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Status != "success" {
		t.Errorf("response status = %q", resp.Status)
	}
}

func TestMeetingsListRejectsBadDate(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/meetings?from=20-08-2026", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestGetMeetingNotFound(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/meetings/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}
}

func TestCreateMeeting(t *testing.T) {
	env := newTestEnv()

	body := map[string]interface{}{
		"uuid":       "uuid-new",
		"topic":      "Planning",
		"start_time": "2026-08-20T10:00:00Z",
		"end_time":   "2026-08-20T11:00:00Z",
	}
	rec := env.do(t, http.MethodPost, "/api/v1/meetings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// Duplicate UUID conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/meetings", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestCreateMeetingValidation(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/meetings", map[string]interface{}{
		"uuid":       "uuid-x",
		"topic":      "Backwards",
		"start_time": "2026-08-20T11:00:00Z",
		"end_time":   "2026-08-20T10:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for end before start", rec.Code)
	}
}

func TestDeleteMeeting(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/meetings/%d", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/meetings/%d", m.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSyncEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/sync?from=2026-08-01&to=2026-08-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ranged sync status = %d, want 200", rec.Code)
	}
	if env.sync.lastFrom.IsZero() || !env.sync.lastTo.After(env.sync.lastFrom) {
		t.Errorf("sync range = %v..%v", env.sync.lastFrom, env.sync.lastTo)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/sync?from=2026-08-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("half-open range status = %d, want 400", rec.Code)
	}
}

func TestParticipantsEndpoints(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")
	env.sync.participants = []models.Participant{
		{MeetingID: m.ID, Name: "Ana", Minutes: 17},
	}

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meetings/%d/participants", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if env.sync.ensureCalls != 1 {
		t.Errorf("ensureCalls = %d, want 1", env.sync.ensureCalls)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/meetings/%d/participants/refresh", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", rec.Code)
	}
	if env.sync.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", env.sync.refreshCalls)
	}
}

func TestParticipantsCarryAssistanceFlags(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")
	env.sync.participants = []models.Participant{
		{MeetingID: m.ID, Name: "Ana", Minutes: 17},
		{MeetingID: m.ID, Name: "Bruno", Minutes: 42},
	}
	env.db.assistance[m.ID] = &models.Assistance{
		MeetingID: m.ID, Total: 10, InPerson: 4, Values: []int{1},
	}

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meetings/%d/participants", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type = %T", resp.Data)
	}
	if data["inPersonTotal"] != float64(4) {
		t.Errorf("inPersonTotal = %v, want 4", data["inPersonTotal"])
	}
	participants, ok := data["participants"].([]interface{})
	if !ok || len(participants) != 2 {
		t.Fatalf("participants = %v, want 2 entries", data["participants"])
	}
	first := participants[0].(map[string]interface{})
	if first["assistance_value"] != float64(1) {
		t.Errorf("first flag = %v, want 1 at position 0", first["assistance_value"])
	}
	// The flag list is shorter than the participant list; the rest get null.
	second := participants[1].(map[string]interface{})
	if second["assistance_value"] != nil {
		t.Errorf("second flag = %v, want null past the list end", second["assistance_value"])
	}
}

func TestPollsEndpoint(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meetings/%d/polls", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// No polls still answers success with an empty participants list.
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"participants"`)) {
		t.Errorf("poll payload missing participants key: %s", rec.Body.String())
	}
}

func TestAssistanceRoundTrip(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meetings/%d/assistance", m.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before save = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/meetings/%d/assistance", m.ID),
		map[string]interface{}{"total": 50, "inPersonTotal": 30, "values": []int{1, 0, 1}})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meetings/%d/assistance", m.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type = %T", resp.Data)
	}
	if data["total"] != float64(50) || data["inPersonTotal"] != float64(30) {
		t.Errorf("assistance = %v, want total 50 in person 30", data)
	}
	values, ok := data["values"].([]interface{})
	if !ok || len(values) != 3 {
		t.Errorf("values = %v, want the 3 stored flags", data["values"])
	}
}

func TestAssistanceAcceptsInPersonAboveTotal(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")

	// The two counts are independent caller-supplied figures; the remote
	// total may come out negative and that is stored as-is.
	rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/meetings/%d/assistance", m.ID),
		map[string]interface{}{"total": 10, "inPersonTotal": 20})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	stored := env.db.assistance[m.ID]
	if stored == nil || stored.Total != 10 || stored.InPerson != 20 {
		t.Errorf("stored = %+v, want total 10 in person 20", stored)
	}
}

func TestAssistanceValidation(t *testing.T) {
	env := newTestEnv()
	m := env.db.addMeeting("uuid-1", "Standup")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative total", map[string]interface{}{"total": -1, "inPersonTotal": 0}},
		{"negative in person", map[string]interface{}{"total": 10, "inPersonTotal": -2}},
		{"negative flag", map[string]interface{}{"total": 10, "inPersonTotal": 5, "values": []int{1, -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/meetings/%d/assistance", m.ID), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRetentionEndpoints(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/retention/run", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.retention.calls != 1 {
		t.Errorf("retention calls = %d, want 1", env.retention.calls)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/archives/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/archives", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("archives status = %d, want 200", rec.Code)
	}
}

func TestHealthDegraded(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d, want 200", rec.Code)
	}

	env.db.pingErr = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}
