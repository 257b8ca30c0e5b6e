// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"net/http"
	"time"
)

// RunRetention triggers a manual retention run and returns its report.
func (h *Handler) RunRetention(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.retention.RunRetention(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Retention run failed", err)
		return
	}

	respondSuccess(w, report, start)
}

// Archives lists archived attendance summaries.
func (h *Handler) Archives(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit < 0 {
		limit = h.config.API.DefaultPageSize
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	archives, err := h.db.ListArchives(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list archives", err)
		return
	}

	respondSuccess(w, archives, start)
}

// ArchiveStats returns archive counts for the recent window and all time.
func (h *Handler) ArchiveStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.db.GetArchiveStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute archive stats", err)
		return
	}

	respondSuccess(w, stats, start)
}
