// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

// Package zoom provides a client for the Zoom REST API report endpoints,
// with server-to-server OAuth token caching, request pacing, retry with
// backoff, and circuit breaker protection.
package zoom

import "github.com/goccy/go-json"

// tokenResponse is the OAuth token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Meeting is one entry of the past-meetings report.
//
// StartTime and EndTime keep the upstream ISO-8601 strings; the sync layer
// owns parsing and timezone conversion. Duration is in minutes.
type Meeting struct {
	UUID              string `json:"uuid"`
	ID                int64  `json:"id"`
	HostID            string `json:"host_id"`
	Topic             string `json:"topic"`
	Type              int    `json:"type"`
	StartTime         string `json:"start_time"`
	Duration          int    `json:"duration"`
	Timezone          string `json:"timezone"`
	HostEmail         string `json:"host_email"`
	UserName          string `json:"user_name"`
	EndTime           string `json:"end_time"`
	ParticipantsCount int    `json:"participants_count"`
}

// meetingsPage is one page of the past-meetings report.
type meetingsPage struct {
	From          string    `json:"from"`
	To            string    `json:"to"`
	PageCount     int       `json:"page_count"`
	PageSize      int       `json:"page_size"`
	TotalRecords  int       `json:"total_records"`
	NextPageToken string    `json:"next_page_token"`
	Meetings      []Meeting `json:"meetings"`
}

// Participant is one join/leave record of the participants report.
// A single person produces one record per join, so the same name can
// appear multiple times. Duration is in seconds.
type Participant struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	UserEmail string `json:"user_email"`
	JoinTime  string `json:"join_time"`
	LeaveTime string `json:"leave_time"`
	Duration  int    `json:"duration"`
}

// participantsPage is one page of the participants report.
type participantsPage struct {
	PageCount     int           `json:"page_count"`
	PageSize      int           `json:"page_size"`
	TotalRecords  int           `json:"total_records"`
	NextPageToken string        `json:"next_page_token"`
	Participants  []Participant `json:"participants"`
}

// PollAnswer is a single question/answer pair from a meeting poll.
type PollAnswer struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	PollingID string `json:"polling_id"`
	DateTime  string `json:"date_time"`
}

// PollRespondent is one attendee's poll submissions.
type PollRespondent struct {
	Email           string       `json:"email"`
	Name            string       `json:"name"`
	FirstName       string       `json:"first_name"`
	QuestionDetails []PollAnswer `json:"question_details"`
}

// PollResults holds the poll report for a meeting.
//
// The upstream response carries respondents under "questions"; downstream
// consumers expect them under "participants". MarshalJSON performs that
// rename so the type reads the Zoom wire format and writes the legacy one.
type PollResults struct {
	ID          int64            `json:"id"`
	UUID        string           `json:"uuid"`
	StartTime   string           `json:"start_time"`
	Respondents []PollRespondent `json:"questions"`
}

// MarshalJSON serializes poll results with respondents under "participants".
func (p PollResults) MarshalJSON() ([]byte, error) {
	respondents := p.Respondents
	if respondents == nil {
		respondents = []PollRespondent{}
	}
	return json.Marshal(struct {
		ID           int64            `json:"id"`
		UUID         string           `json:"uuid"`
		StartTime    string           `json:"start_time"`
		Participants []PollRespondent `json:"participants"`
	}{
		ID:           p.ID,
		UUID:         p.UUID,
		StartTime:    p.StartTime,
		Participants: respondents,
	})
}
