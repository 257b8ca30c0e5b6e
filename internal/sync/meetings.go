// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/metrics"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/zoom"
)

// fallbackDuration is used when the upstream report carries neither an end
// time nor a duration.
const fallbackDuration = time.Hour

// placeholderWindow is the session length recorded for a meeting whose start
// time cannot be parsed at all. The session is stored as the 24 hours up to
// now so it remains visible instead of being dropped.
const placeholderWindow = 24 * time.Hour

// syncMeetings fetches past meetings in [from, to] and inserts the ones not
// yet stored. Meetings are processed independently: a malformed record is
// counted as failed and the run continues.
func (m *Manager) syncMeetings(ctx context.Context, from, to time.Time) (*Report, error) {
	start := time.Now()

	logging.Info().Time("from", from).Time("to", to).Msg("Syncing past meetings...")

	upstream, err := m.client.ListPastMeetings(ctx, from, to)
	if err != nil {
		metrics.RecordSyncRun(time.Since(start), 0, 0, err)
		return nil, fmt.Errorf("failed to list past meetings: %w", err)
	}

	report := &Report{Fetched: len(upstream)}
	for _, um := range upstream {
		meeting := m.toMeeting(um)

		inserted, err := m.db.InsertMeeting(ctx, meeting)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("meeting %s: %v", um.UUID, err))
			logging.Error().Err(err).Str("uuid", um.UUID).Msg("Failed to store meeting")
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}

	metrics.RecordSyncRun(time.Since(start), report.Inserted, report.Skipped, nil)
	logging.Info().
		Int("fetched", report.Fetched).
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("Meeting sync completed")

	return report, nil
}

// toMeeting converts an upstream report entry into the stored session form,
// shifting timestamps into the configured timezone. The upstream timezone
// label is kept on the session, falling back to the configured one when the
// report omits it.
func (m *Manager) toMeeting(um zoom.Meeting) *models.Meeting {
	timezone := um.Timezone
	if timezone == "" {
		timezone = m.location.String()
	}

	startTime, err := time.Parse(time.RFC3339, um.StartTime)
	if err != nil {
		// A session with an unreadable start time is stored as the last
		// 24 hours so it still shows up for manual correction.
		logging.Warn().Str("uuid", um.UUID).Str("start_time", um.StartTime).Msg("Unparseable meeting start time, storing placeholder window")
		now := time.Now().In(m.location)
		return &models.Meeting{
			UUID:      um.UUID,
			Topic:     um.Topic,
			StartTime: now.Add(-placeholderWindow),
			EndTime:   now,
			Timezone:  timezone,
		}
	}
	startTime = startTime.In(m.location)

	return &models.Meeting{
		UUID:      um.UUID,
		Topic:     um.Topic,
		StartTime: startTime,
		EndTime:   m.resolveEndTime(um, startTime),
		Timezone:  timezone,
	}
}

// resolveEndTime picks the session end in order of preference: the reported
// end time, start plus reported duration, then start plus one hour.
func (m *Manager) resolveEndTime(um zoom.Meeting, startTime time.Time) time.Time {
	if um.EndTime != "" {
		if endTime, err := time.Parse(time.RFC3339, um.EndTime); err == nil {
			return endTime.In(m.location)
		}
		logging.Warn().Str("uuid", um.UUID).Str("end_time", um.EndTime).Msg("Unparseable meeting end time, deriving from duration")
	}
	if um.Duration > 0 {
		return startTime.Add(time.Duration(um.Duration) * time.Minute)
	}
	return startTime.Add(fallbackDuration)
}
