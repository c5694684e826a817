// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBearerTransport_SetsHeader(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)
	srv := httptest.NewServer(NewMiddleware(manager).RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	defer srv.Close()

	client := NewAdminHTTPClient(manager, "panel", srv.Client().Transport)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("caller's request was mutated")
	}
}

func TestBearerTransport_StaticToken(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &BearerTransport{Source: StaticToken("abc")}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	if got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRenewingTokenSource(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)
	src := NewAdminTokenSource(manager, "panel")
	now := time.Now()
	src.now = func() time.Time { return now }

	first, err := src.Token()
	if err != nil || !strings.Contains(first, ".") {
		t.Fatalf("Token() = %q, %v", first, err)
	}
	again, _ := src.Token()
	if again != first {
		t.Error("token renewed before half its lifetime")
	}

	now = now.Add(31 * time.Minute)
	renewed, _ := src.Token()
	if want := now.Add(30 * time.Minute); !src.renewAt.Equal(want) {
		t.Errorf("renewAt = %v, want %v", src.renewAt, want)
	}
	claims, err := manager.ValidateToken(renewed)
	if err != nil || !claims.IsAdmin() {
		t.Errorf("renewed token invalid: %v", err)
	}
}
