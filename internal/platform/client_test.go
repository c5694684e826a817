// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.PlatformConfig{URL: srv.URL + "/", APIKey: "SU-test", Timeout: 5 * time.Second})
}

func TestListMarketplaces_AppliesDefaultsAndAuth(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marketplaces" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "ApiKey SU-test" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`[{"id":"MP-1","name":"US","description":"d"},{"id":"MP-2","name":"EU","icon":"https://x/icon.svg"}]`))
	})

	got, err := c.ListMarketplaces(context.Background())
	if err != nil {
		t.Fatalf("ListMarketplaces: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d marketplaces", len(got))
	}
	if got[0].Icon != models.DefaultMarketplaceIcon {
		t.Errorf("default icon not applied: %q", got[0].Icon)
	}
	if got[1].Icon != "https://x/icon.svg" {
		t.Errorf("explicit icon replaced: %q", got[1].Icon)
	}
}

func TestListMarketplaces_Pages(t *testing.T) {
	t.Parallel()

	const total = pageSize + 5
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		end := offset + pageSize
		if end > total {
			end = total
		}
		w.Header().Set("Content-Range", fmt.Sprintf("items %d-%d/%d", offset, end-1, total))
		_, _ = w.Write([]byte("["))
		for i := offset; i < end; i++ {
			if i > offset {
				_, _ = w.Write([]byte(","))
			}
			_, _ = fmt.Fprintf(w, `{"id":"MP-%d","name":"m"}`, i)
		}
		_, _ = w.Write([]byte("]"))
	})

	got, err := c.ListMarketplaces(context.Background())
	if err != nil {
		t.Fatalf("ListMarketplaces: %v", err)
	}
	if len(got) != total {
		t.Fatalf("got %d marketplaces, want %d", len(got), total)
	}
	if got[total-1].ID != fmt.Sprintf("MP-%d", total-1) {
		t.Errorf("last id = %s", got[total-1].ID)
	}
}

func TestCountActiveAssets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		body   string
		want   int
	}{
		{name: "content range", header: "items 0-0/42", body: "[]", want: 42},
		{name: "empty range", header: "items 0-0/0", body: "[]", want: 0},
		{name: "no header counts body", body: `[{"id":"AS-1"},{"id":"AS-2"}]`, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/subscriptions/assets" {
					http.NotFound(w, r)
					return
				}
				if want := "and(eq(marketplace.id,MP-1),eq(status,active))&limit=0"; r.URL.RawQuery != want {
					t.Errorf("query = %q, want %q", r.URL.RawQuery, want)
				}
				if tt.header != "" {
					w.Header().Set("Content-Range", tt.header)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.CountActiveAssets(context.Background(), "MP-1")
			if err != nil {
				t.Fatalf("CountActiveAssets: %v", err)
			}
			if got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClient_StatusErrorPassThrough(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_code":"AUTH_001"}`))
	})

	_, err := c.ListMarketplaces(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized || string(statusErr.Body) != `{"error_code":"AUTH_001"}` {
		t.Errorf("unexpected status error: %+v", statusErr)
	}
}

func TestClient_UnavailableWhenBreakerOpen(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 11; i++ {
		_, _ = c.CountActiveAssets(context.Background(), "MP-1")
	}

	err := c.Ping(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestParseContentRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  int
		valid bool
	}{
		{"items 0-9/100", 100, true},
		{"items 0-0/0", 0, true},
		{"", 0, false},
		{"items 0-9/*", 0, false},
		{"items 0-9/-1", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseContentRange(tt.in)
		if got != tt.want || ok != tt.valid {
			t.Errorf("parseContentRange(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.valid)
		}
	}
}
