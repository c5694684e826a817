// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package auth

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// TokenSource supplies bearer tokens.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that never changes.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// RenewingTokenSource mints tokens from a JWTManager and renews them once
// half of their lifetime has passed.
type RenewingTokenSource struct {
	manager  *JWTManager
	username string
	role     string
	now      func() time.Time

	mu      sync.Mutex
	token   string
	renewAt time.Time
}

// NewAdminTokenSource returns a renewing source of admin tokens.
func NewAdminTokenSource(m *JWTManager, username string) *RenewingTokenSource {
	return &RenewingTokenSource{manager: m, username: username, role: RoleAdmin, now: time.Now}
}

// Token implements TokenSource.
func (s *RenewingTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.renewAt) {
		return s.token, nil
	}

	token, err := s.manager.GenerateToken(s.username, s.role)
	if err != nil {
		return "", err
	}
	s.token = token
	s.renewAt = now.Add(s.manager.timeout / 2)
	return token, nil
}

// BearerTransport adds "Authorization: Bearer <token>" to every request.
type BearerTransport struct {
	Source TokenSource
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The request is cloned, never mutated.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Source == nil {
		return base.RoundTrip(req)
	}

	token, err := t.Source.Token()
	if err != nil {
		return nil, fmt.Errorf("bearer token: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}

// NewAdminHTTPClient returns an http.Client that authenticates as an admin.
func NewAdminHTTPClient(m *JWTManager, username string, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &BearerTransport{Source: NewAdminTokenSource(m, username), Base: base}}
}
