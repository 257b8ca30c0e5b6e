// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"net/http"
	"time"

	"github.com/meetrics/meetrics/internal/models"
)

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Database      string    `json:"database"`
	LastSync      time.Time `json:"last_sync,omitempty"`
}

// Health reports process and database health. Answers 503 when the
// database does not respond.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Database:      "ok",
		LastSync:      h.sync.LastSyncTime(),
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusOK {
		respondSuccess(w, resp, start)
		return
	}
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
		Error: &models.APIError{
			Code:    "DATABASE_ERROR",
			Message: "Database is unreachable",
		},
	})
}
