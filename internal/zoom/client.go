// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package zoom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/metrics"
)

// reportPageSize is the page size requested from the Zoom report endpoints.
// 300 is the maximum Zoom accepts.
const reportPageSize = 300

// reportDateFormat is the date layout for the from/to query parameters.
const reportDateFormat = "2006-01-02"

// maxErrorBodySize limits the amount of response body read for error reporting.
// This prevents unbounded memory allocation when reading large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// ClientInterface defines the Zoom report API operations used by Meetrics.
//
// It is implemented by Client for production use and by mock implementations
// for testing. All methods are safe for concurrent use.
type ClientInterface interface {
	// ListPastMeetings returns every past meeting of the configured user in
	// the [from, to] date range, following pagination to exhaustion.
	ListPastMeetings(ctx context.Context, from, to time.Time) ([]Meeting, error)

	// ListParticipants returns every join/leave record of a past meeting,
	// following pagination to exhaustion.
	ListParticipants(ctx context.Context, meetingUUID string) ([]Participant, error)

	// GetPollResults returns the poll report of a past meeting. A meeting
	// without polls yields an empty result, not an error.
	GetPollResults(ctx context.Context, meetingUUID string) (*PollResults, error)
}

// Client handles communication with the Zoom report API.
//
// Features:
//   - Bearer authentication via a cached OAuth token source
//   - Outbound request pacing with a token-bucket rate limiter
//   - Automatic retry with exponential backoff on HTTP 429 and 5xx,
//     honoring Retry-After
//   - Pagination handling via page_size/next_page_token
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL        string
	userID         string
	tokens         TokenSource
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Zoom report API client with the provided configuration
// and token source.
func NewClient(cfg *config.ZoomConfig, tokens TokenSource) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		userID:  cfg.UserID,
		tokens:  tokens,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// ListPastMeetings implements ClientInterface.
func (c *Client) ListPastMeetings(ctx context.Context, from, to time.Time) ([]Meeting, error) {
	var meetings []Meeting
	nextToken := ""

	for {
		q := url.Values{}
		q.Set("from", from.Format(reportDateFormat))
		q.Set("to", to.Format(reportDateFormat))
		q.Set("page_size", strconv.Itoa(reportPageSize))
		if nextToken != "" {
			q.Set("next_page_token", nextToken)
		}
		reqURL := fmt.Sprintf("%s/report/users/%s/meetings?%s", c.baseURL, url.PathEscape(c.userID), q.Encode())

		var page meetingsPage
		if err := c.get(ctx, "past_meetings", reqURL, &page); err != nil {
			return nil, err
		}
		meetings = append(meetings, page.Meetings...)

		if page.NextPageToken == "" {
			return meetings, nil
		}
		nextToken = page.NextPageToken
	}
}

// ListParticipants implements ClientInterface.
//
// The meeting UUID is percent-encoded twice: UUIDs may contain '/' or start
// with one, and the participants report endpoint only resolves them when the
// path segment arrives double encoded.
func (c *Client) ListParticipants(ctx context.Context, meetingUUID string) ([]Participant, error) {
	encodedUUID := url.QueryEscape(url.QueryEscape(meetingUUID))

	var participants []Participant
	nextToken := ""

	for {
		q := url.Values{}
		q.Set("page_size", strconv.Itoa(reportPageSize))
		if nextToken != "" {
			q.Set("next_page_token", nextToken)
		}
		reqURL := fmt.Sprintf("%s/report/meetings/%s/participants?%s", c.baseURL, encodedUUID, q.Encode())

		var page participantsPage
		if err := c.get(ctx, "participants", reqURL, &page); err != nil {
			return nil, err
		}
		participants = append(participants, page.Participants...)

		if page.NextPageToken == "" {
			return participants, nil
		}
		nextToken = page.NextPageToken
	}
}

// GetPollResults implements ClientInterface.
//
// The polls endpoint takes a single-encoded UUID. Zoom answers 404 for
// meetings that had no polls; that is a normal outcome and maps to an empty
// result.
func (c *Client) GetPollResults(ctx context.Context, meetingUUID string) (*PollResults, error) {
	reqURL := fmt.Sprintf("%s/report/meetings/%s/polls", c.baseURL, url.QueryEscape(meetingUUID))

	resp, err := c.doRequest(ctx, "polls", reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &PollResults{UUID: meetingUUID, Respondents: []PollRespondent{}}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("polls request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var results PollResults
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode polls response: %w", err)
	}
	if results.Respondents == nil {
		results.Respondents = []PollRespondent{}
	}
	return &results, nil
}

// get performs a GET request and decodes a 200 response into result.
func (c *Client) get(ctx context.Context, endpoint, reqURL string, result interface{}) error {
	resp, err := c.doRequest(ctx, endpoint, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// doRequest performs an authenticated GET with rate limiting and retry.
//
// Retries cover transport errors, HTTP 429, and 5xx with exponential backoff
// (base delay doubled each attempt), honoring Retry-After on 429. A 401
// invalidates the cached token before the next attempt.
func (c *Client) doRequest(ctx context.Context, endpoint, reqURL string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.doRequestInner(ctx, reqURL)
	metrics.RecordZoomRequest(endpoint, time.Since(start), err)
	return resp, err
}

func (c *Client) doRequestInner(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain access token: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
		} else {
			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				_ = resp.Body.Close()
				c.tokens.Invalidate()
				lastErr = fmt.Errorf("request unauthorized (HTTP 401)")
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				body := readBodyForError(resp.Body)
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
				if attempt < c.maxRetries {
					if err := c.backoff(ctx, attempt, resp.Header.Get("Retry-After")); err != nil {
						return nil, err
					}
					continue
				}
			default:
				return resp, nil
			}
		}

		if attempt < c.maxRetries {
			if err := c.backoff(ctx, attempt, ""); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// backoff waits for the exponential backoff delay of the given attempt, or
// the Retry-After duration when present. Cancels with the context.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter string) error {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))

	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			delay = time.Duration(seconds) * time.Second
		}
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
