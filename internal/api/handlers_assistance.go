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

// AssistanceRequest is the body of an assistance save: the two headcounts
// plus an optional per-participant flag list, matched by position against
// the stored participant order. The counts are independent caller-supplied
// figures; an in-person count above the total is accepted as-is.
type AssistanceRequest struct {
	Total    int   `json:"total" validate:"min=0"`
	InPerson int   `json:"inPersonTotal" validate:"min=0"`
	Values   []int `json:"values" validate:"omitempty,dive,min=0"`
}

// AssistanceResponse mirrors the stored counts and flags.
type AssistanceResponse struct {
	Total      int       `json:"total"`
	InPerson   int       `json:"inPersonTotal"`
	Values     []int     `json:"values"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SaveAssistance records the manually counted attendance of a meeting.
// Saving again replaces the previous counts and flags.
func (h *Handler) SaveAssistance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	var req AssistanceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	assistance := &models.Assistance{
		MeetingID: meeting.ID,
		Total:     req.Total,
		InPerson:  req.InPerson,
		Values:    req.Values,
	}
	if err := h.db.SaveAssistance(r.Context(), assistance); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save assistance", err)
		return
	}

	respondSuccess(w, assistanceResponse(assistance), start)
}

// GetAssistance returns the recorded attendance of a meeting.
func (h *Handler) GetAssistance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	assistance, err := h.db.GetAssistance(r.Context(), meeting.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No assistance recorded for this meeting", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load assistance", err)
		return
	}

	respondSuccess(w, assistanceResponse(assistance), start)
}

func assistanceResponse(a *models.Assistance) *AssistanceResponse {
	values := a.Values
	if values == nil {
		values = []int{}
	}
	return &AssistanceResponse{
		Total:      a.Total,
		InPerson:   a.InPerson,
		Values:     values,
		RecordedAt: a.RecordedAt,
	}
}
