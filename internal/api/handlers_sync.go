// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"net/http"
	"time"
)

// SyncRequest carries the validated manual sync parameters.
type SyncRequest struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

// Sync triggers a manual synchronization.
//
// Without parameters it syncs the configured lookback window; with from/to
// it syncs that date range. Returns the sync report.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := SyncRequest{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if req.From == "" && req.To == "" {
		report, err := h.sync.SyncNow(r.Context())
		if err != nil {
			respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Sync failed", err)
			return
		}
		respondSuccess(w, report, start)
		return
	}
	if req.From == "" || req.To == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "from and to must be provided together", nil)
		return
	}

	from, _ := time.Parse(dateParamLayout, req.From)
	to, _ := time.Parse(dateParamLayout, req.To)
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "to must not be before from", nil)
		return
	}

	report, err := h.sync.SyncRange(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Sync failed", err)
		return
	}

	respondSuccess(w, report, start)
}
