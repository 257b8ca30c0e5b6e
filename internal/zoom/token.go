// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package zoom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/meetrics/meetrics/internal/config"
	"github.com/meetrics/meetrics/internal/logging"
	"github.com/meetrics/meetrics/internal/metrics"
)

// tokenSafetyMargin is subtracted from the upstream expiry so a token is
// refreshed before it can expire mid-request.
const tokenSafetyMargin = 5 * time.Minute

// ErrEmptyToken is returned when the OAuth endpoint answers 200 but the
// response carries no access token.
var ErrEmptyToken = errors.New("zoom: token response contained no access token")

// TokenSource provides bearer tokens for Zoom API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// TokenProvider caches a server-to-server OAuth access token.
//
// The provider holds its mutex across the refresh request, so concurrent
// callers needing a fresh token share a single upstream round trip and all
// receive the same token.
type TokenProvider struct {
	authURL      string
	clientID     string
	clientSecret string
	accountID    string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewTokenProvider creates a token provider from Zoom configuration.
func NewTokenProvider(cfg *config.ZoomConfig) *TokenProvider {
	return &TokenProvider{
		authURL:      cfg.AuthURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		accountID:    cfg.AccountID,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Token returns a valid access token, refreshing it when the cached one is
// missing or within the safety margin of its expiry.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.expiresAt.Add(-tokenSafetyMargin)) {
		return p.accessToken, nil
	}

	if err := p.refreshLocked(ctx); err != nil {
		return "", err
	}
	return p.accessToken, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
// Callers use this after an upstream 401.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessToken = ""
	p.expiresAt = time.Time{}
}

// refreshLocked requests a new access token. Must be called with mu held.
func (p *TokenProvider) refreshLocked(ctx context.Context) (err error) {
	defer func() { metrics.RecordTokenRefresh(err) }()

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", p.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return ErrEmptyToken
	}

	p.accessToken = tr.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	logging.Debug().Time("expires_at", p.expiresAt).Msg("Zoom access token refreshed")
	return nil
}
