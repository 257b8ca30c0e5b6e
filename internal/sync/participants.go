// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/models"
	"github.com/meetrics/meetrics/internal/zoom"
)

// IdentityResolver maps an upstream join/leave record to the identity key
// its attendance is accumulated under.
//
// The default resolver groups by display name. Deployments where attendees
// share display names can plug in a resolver keyed on email or directory id.
type IdentityResolver interface {
	Identity(p zoom.Participant) string
}

// NameResolver groups records by display name, falling back to the opaque
// per-session participant id when the name is empty.
type NameResolver struct{}

// Identity implements IdentityResolver.
func (NameResolver) Identity(p zoom.Participant) string {
	if p.Name != "" {
		return p.Name
	}
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

// EnsureParticipants returns the aggregated participants of a meeting,
// fetching and aggregating them from Zoom only on first access. Subsequent
// calls serve the stored rows.
func (m *Manager) EnsureParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error) {
	has, err := m.db.HasParticipants(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	if has {
		return m.db.GetParticipants(ctx, meeting.ID)
	}
	return m.aggregateAndStore(ctx, meeting)
}

// RefreshParticipants discards the stored aggregation of a meeting and
// rebuilds it from the upstream report.
func (m *Manager) RefreshParticipants(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error) {
	if err := m.db.DeleteParticipants(ctx, meeting.ID); err != nil {
		return nil, err
	}
	return m.aggregateAndStore(ctx, meeting)
}

func (m *Manager) aggregateAndStore(ctx context.Context, meeting *models.Meeting) ([]models.Participant, error) {
	records, err := m.client.ListParticipants(ctx, meeting.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of meeting %s: %w", meeting.UUID, err)
	}

	participants := AggregateParticipants(records, NameResolver{})
	for i := range participants {
		participants[i].MeetingID = meeting.ID
	}

	if err := m.db.SaveParticipants(ctx, meeting.ID, participants); err != nil {
		return nil, err
	}

	logging.Info().
		Str("uuid", meeting.UUID).
		Int("records", len(records)).
		Int("participants", len(participants)).
		Msg("Participants aggregated")

	return m.db.GetParticipants(ctx, meeting.ID)
}

// AggregateParticipants collapses raw join/leave records into one entry per
// person.
//
// Attendance is the floor of the summed connection seconds in whole minutes.
// JoinTime is the smallest join timestamp and LeaveTime the largest leave
// timestamp, compared as strings: the upstream emits uniform UTC ISO-8601,
// where lexicographic order equals chronological order.
func AggregateParticipants(records []zoom.Participant, resolver IdentityResolver) []models.Participant {
	type accumulator struct {
		userID    string
		name      string
		seconds   int
		joinTime  string
		leaveTime string
	}

	groups := make(map[string]*accumulator)
	order := []string{}

	for _, r := range records {
		key := resolver.Identity(r)

		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{
				name:      key,
				joinTime:  r.JoinTime,
				leaveTime: r.LeaveTime,
			}
			groups[key] = acc
			order = append(order, key)
		}

		acc.seconds += r.Duration
		if acc.userID == "" {
			acc.userID = r.UserID
		}
		if r.JoinTime < acc.joinTime {
			acc.joinTime = r.JoinTime
		}
		if r.LeaveTime > acc.leaveTime {
			acc.leaveTime = r.LeaveTime
		}
	}

	sort.Strings(order)

	participants := make([]models.Participant, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		participants = append(participants, models.Participant{
			UserID:    acc.userID,
			Name:      acc.name,
			Minutes:   acc.seconds / 60,
			JoinTime:  acc.joinTime,
			LeaveTime: acc.leaveTime,
		})
	}
	return participants
}
