// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
client.go - Upstream Platform REST Client

The platform owns the marketplace catalog and the subscription assets.
Marketpanel reads two things from it:
  - GET /marketplaces, paged with limit/offset, every marketplace visible to the API key
  - GET /subscriptions/assets with an RQL filter and limit=0, where the total
    comes back in the Content-Range header ("items 0-0/<total>")

Requests carry "Authorization: ApiKey <key>". Non-2xx answers become
*StatusError so the REST layer can pass the status and body through.
*/

package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/breaker"
	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/models"
)

// ErrUnavailable is returned while the platform breaker is open.
var ErrUnavailable = errors.New("platform unavailable")

// pageSize is the limit used when paging through marketplaces.
const pageSize = 100

const maxErrorBody = 64 << 10

// StatusError is a non-2xx answer from the platform.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform returned status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Catalog is what the REST layer needs from the platform.
type Catalog interface {
	ListMarketplaces(ctx context.Context) ([]models.Marketplace, error)
	CountActiveAssets(ctx context.Context, marketplaceID string) (int, error)
	Ping(ctx context.Context) error
}

var _ Catalog = (*Client)(nil)

// Client talks to the platform API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *breaker.Breaker
}

// NewClient creates a platform client from configuration.
func NewClient(cfg config.PlatformConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		cb: breaker.New(breaker.Settings{
			Name:         "platform",
			IsSuccessful: isClientError,
		}),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *breaker.Breaker {
	return c.cb
}

// ListMarketplaces returns every marketplace, icon defaults applied.
func (c *Client) ListMarketplaces(ctx context.Context) ([]models.Marketplace, error) {
	start := time.Now()
	result, err := breaker.Execute(c.cb, func() ([]models.Marketplace, error) {
		return c.listMarketplaces(ctx)
	})
	metrics.RecordPlatformRequest("list_marketplaces", time.Since(start), err)
	if err != nil {
		return nil, c.wrap("list marketplaces", err)
	}
	return result, nil
}

func (c *Client) listMarketplaces(ctx context.Context) ([]models.Marketplace, error) {
	all := make([]models.Marketplace, 0)
	for offset := 0; ; offset += pageSize {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		resp, err := c.get(ctx, "/marketplaces", query.Encode())
		if err != nil {
			return nil, err
		}

		var page []models.Marketplace
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		total, hasTotal := parseContentRange(resp.Header.Get("Content-Range"))
		_ = resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode marketplaces: %w", decodeErr)
		}

		for i := range page {
			all = append(all, page[i].WithDefaults())
		}

		if len(page) < pageSize || (hasTotal && len(all) >= total) {
			return all, nil
		}
	}
}

// CountActiveAssets returns the number of active subscriptions in a marketplace.
func (c *Client) CountActiveAssets(ctx context.Context, marketplaceID string) (int, error) {
	start := time.Now()
	count, err := breaker.Execute(c.cb, func() (int, error) {
		return c.countActiveAssets(ctx, marketplaceID)
	})
	metrics.RecordPlatformRequest("count_assets", time.Since(start), err)
	if err != nil {
		return 0, c.wrap("count assets for "+marketplaceID, err)
	}
	return count, nil
}

func (c *Client) countActiveAssets(ctx context.Context, marketplaceID string) (int, error) {
	filter := fmt.Sprintf("and(eq(marketplace.id,%s),eq(status,active))", rqlEscape(marketplaceID))
	resp, err := c.get(ctx, "/subscriptions/assets", filter+"&limit=0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if total, ok := parseContentRange(resp.Header.Get("Content-Range")); ok {
		_, _ = io.Copy(io.Discard, resp.Body)
		return total, nil
	}

	// Without Content-Range the platform returned the full list.
	var assets []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return 0, fmt.Errorf("decode assets: %w", err)
	}
	return len(assets), nil
}

// Ping checks that the platform answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := breaker.Execute(c.cb, func() (struct{}, error) {
		resp, err := c.get(ctx, "/marketplaces", "limit=0")
		if err != nil {
			return struct{}{}, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return struct{}{}, nil
	})
	if err != nil {
		return c.wrap("ping", err)
	}
	return nil
}

// get performs a GET and returns the response only for 2xx answers.
func (c *Client) get(ctx context.Context, path, rawQuery string) (*http.Response, error) {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		logging.Ctx(ctx).Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Platform request failed")
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return resp, nil
}

func (c *Client) wrap(op string, err error) error {
	if errors.Is(err, breaker.ErrOpen) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// parseContentRange reads the total from "items 0-99/250".
func parseContentRange(header string) (int, bool) {
	slash := strings.LastIndexByte(header, '/')
	if slash < 0 {
		return 0, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(header[slash+1:]))
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}

// rqlEscape keeps an id from breaking out of an RQL argument.
func rqlEscape(value string) string {
	return url.QueryEscape(value)
}

func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}
