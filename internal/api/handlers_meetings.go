// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/meetrics/meetrics/internal/database"
	"github.com/meetrics/meetrics/internal/models"
)

// dateParamLayout is the accepted layout for from/to query parameters.
const dateParamLayout = "2006-01-02"

// MeetingsRequest carries the validated list query parameters.
type MeetingsRequest struct {
	From  string `validate:"omitempty,datetime=2006-01-02"`
	To    string `validate:"omitempty,datetime=2006-01-02"`
	Topic string `validate:"omitempty,max=200"`
	Limit int    `validate:"min=1"`
}

// CreateMeetingRequest is the body of a manual meeting creation.
type CreateMeetingRequest struct {
	UUID      string    `json:"uuid" validate:"required,max=100"`
	Topic     string    `json:"topic" validate:"required,max=200"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Timezone  string    `json:"timezone" validate:"omitempty,max=100"`
}

// Meetings lists stored meetings with optional date range and topic filters.
func (h *Handler) Meetings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := MeetingsRequest{
		From:  r.URL.Query().Get("from"),
		To:    r.URL.Query().Get("to"),
		Topic: r.URL.Query().Get("topic"),
		Limit: getIntParam(r, "limit", h.config.API.DefaultPageSize),
	}
	if req.Limit > h.config.API.MaxPageSize {
		req.Limit = h.config.API.MaxPageSize
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	filter := database.MeetingFilter{Topic: req.Topic, Limit: req.Limit}
	if req.From != "" {
		from, _ := time.Parse(dateParamLayout, req.From)
		filter.From = &from
	}
	if req.To != "" {
		// Include the whole final day.
		to, _ := time.Parse(dateParamLayout, req.To)
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	meetings, err := h.db.ListMeetings(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list meetings", err)
		return
	}

	respondSuccess(w, meetings, start)
}

// UpcomingMeetings lists meetings that have not started yet.
func (h *Handler) UpcomingMeetings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meetings, err := h.db.ListUpcomingMeetings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list upcoming meetings", err)
		return
	}

	respondSuccess(w, meetings, start)
}

// GetMeeting returns a single meeting by id.
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	respondSuccess(w, meeting, start)
}

// CreateMeeting stores a manually entered meeting session.
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CreateMeetingRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	meeting := &models.Meeting{
		UUID:      req.UUID,
		Topic:     req.Topic,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Timezone:  req.Timezone,
	}
	inserted, err := h.db.InsertMeeting(r.Context(), meeting)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create meeting", err)
		return
	}
	if !inserted {
		respondError(w, http.StatusConflict, "VALIDATION_ERROR", "A meeting with this UUID already exists", nil)
		return
	}

	stored, err := h.db.GetMeetingByUUID(r.Context(), req.UUID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load created meeting", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status: "success",
		Data:   stored,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// DeleteMeeting removes a meeting and its dependent data.
func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := meetingIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.db.DeleteMeeting(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Meeting not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete meeting", err)
		return
	}

	respondSuccess(w, map[string]int64{"deleted": id}, start)
}

// lookupMeeting resolves the {id} path parameter to a stored meeting,
// writing the error response itself when resolution fails.
func (h *Handler) lookupMeeting(w http.ResponseWriter, r *http.Request) (*models.Meeting, bool) {
	id, err := meetingIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return nil, false
	}

	meeting, err := h.db.GetMeeting(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Meeting not found", nil)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load meeting", err)
		return nil, false
	}
	return meeting, true
}
