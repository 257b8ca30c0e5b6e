// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package metrics provides Prometheus instrumentation for:
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - Zoom API client calls and token refreshes
//   - Sync and retention operations
//   - Circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Zoom API Client Metrics
	ZoomRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zoom_request_duration_seconds",
			Help:    "Duration of Zoom API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ZoomRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoom_request_errors_total",
			Help: "Total number of failed Zoom API requests",
		},
		[]string{"endpoint"},
	)

	ZoomTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoom_token_refreshes_total",
			Help: "Total number of OAuth token refresh attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Sync Operation Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncMeetingsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_meetings_inserted_total",
			Help: "Total number of new meetings stored during sync",
		},
	)

	SyncMeetingsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_meetings_skipped_total",
			Help: "Total number of meetings skipped as already present",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"error_type"}, // "zoom_api", "database", "validation"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync",
		},
	)

	// Retention Metrics
	RetentionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_run_duration_seconds",
			Help:    "Duration of retention runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	RetentionMeetingsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_meetings_archived_total",
			Help: "Total number of meetings archived by retention",
		},
	)

	RetentionMeetingsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_meetings_purged_total",
			Help: "Total number of meetings purged by retention",
		},
	)

	RetentionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_errors_total",
			Help: "Total number of per-meeting retention failures",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordZoomRequest records a Zoom API call metric.
func RecordZoomRequest(endpoint string, duration time.Duration, err error) {
	ZoomRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if err != nil {
		ZoomRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordTokenRefresh records an OAuth token refresh attempt.
func RecordTokenRefresh(err error) {
	if err != nil {
		ZoomTokenRefreshes.WithLabelValues("failure").Inc()
		return
	}
	ZoomTokenRefreshes.WithLabelValues("success").Inc()
}

// RecordSyncRun records a completed sync run.
func RecordSyncRun(duration time.Duration, inserted, skipped int, err error) {
	SyncDuration.Observe(duration.Seconds())
	SyncMeetingsInserted.Add(float64(inserted))
	SyncMeetingsSkipped.Add(float64(skipped))
	if err != nil {
		SyncErrors.WithLabelValues("zoom_api").Inc()
		return
	}
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordRetentionRun records a completed retention run.
func RecordRetentionRun(duration time.Duration, archived, purged, failed int) {
	RetentionRunDuration.Observe(duration.Seconds())
	RetentionMeetingsArchived.Add(float64(archived))
	RetentionMeetingsPurged.Add(float64(purged))
	RetentionErrors.Add(float64(failed))
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
