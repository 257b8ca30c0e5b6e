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

// ParticipantWithAssistance is one aggregated participant joined with the
// manually recorded flag at their position, when one exists.
type ParticipantWithAssistance struct {
	models.Participant
	AssistanceValue *int `json:"assistance_value"`
}

// ParticipantsResponse carries the merged participant list plus the recorded
// in-person total (0 when no assistance was recorded).
type ParticipantsResponse struct {
	Participants  []ParticipantWithAssistance `json:"participants"`
	InPersonTotal int                         `json:"inPersonTotal"`
}

// Participants returns the aggregated participants of a meeting, each joined
// with its recorded attendance flag.
//
// First access fetches and aggregates the upstream report; afterwards the
// stored aggregation is served.
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	participants, err := h.sync.EnsureParticipants(r.Context(), meeting)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to aggregate participants", err)
		return
	}

	h.respondParticipants(w, r, meeting.ID, participants, start)
}

// RefreshParticipants discards the stored aggregation and rebuilds it from
// the upstream report.
func (h *Handler) RefreshParticipants(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	participants, err := h.sync.RefreshParticipants(r.Context(), meeting)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to refresh participants", err)
		return
	}

	h.respondParticipants(w, r, meeting.ID, participants, start)
}

// respondParticipants merges the recorded assistance flags into the
// participant list by position and writes the response. A missing assistance
// record means no flags and an in-person total of 0.
func (h *Handler) respondParticipants(w http.ResponseWriter, r *http.Request, meetingID int64, participants []models.Participant, start time.Time) {
	assistance, err := h.db.GetAssistance(r.Context(), meetingID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load assistance", err)
		return
	}

	response := &ParticipantsResponse{
		Participants: make([]ParticipantWithAssistance, len(participants)),
	}
	if assistance != nil {
		response.InPersonTotal = assistance.InPerson
	}
	for i, p := range participants {
		merged := ParticipantWithAssistance{Participant: p}
		if assistance != nil && i < len(assistance.Values) {
			value := assistance.Values[i]
			merged.AssistanceValue = &value
		}
		response.Participants[i] = merged
	}

	respondSuccess(w, response, start)
}

// Polls proxies the upstream poll report of a meeting. Meetings without
// polls yield an empty result.
func (h *Handler) Polls(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meeting, ok := h.lookupMeeting(w, r)
	if !ok {
		return
	}

	results, err := h.zoom.GetPollResults(r.Context(), meeting.UUID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch poll results", err)
		return
	}

	respondSuccess(w, results, start)
}
