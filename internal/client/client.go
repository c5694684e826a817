// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package client is the panel's view of the marketpanel REST API.

Four calls cover everything the pages need: settings, marketplaces, chart
data and a settings update. An empty installation id selects the default
context (/api/settings); any other id selects the admin path
(/api/admin/{id}/settings). Authentication is left to the http.Client's
transport, see auth.BearerTransport.

The client never retries and never recovers locally. Transport failures,
non-2xx answers (*StatusError) and undecodable bodies are returned as-is.
*/
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/breaker"
	"github.com/tomtom215/marketpanel/internal/models"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = breaker.ErrOpen

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 64 << 10

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, body)
}

// API is implemented by Client. The panel controllers depend on this.
type API interface {
	GetSettings(ctx context.Context, installationID string) (*models.Settings, error)
	GetMarketplaces(ctx context.Context, installationID string) ([]models.Marketplace, error)
	GetChart(ctx context.Context, chartType string) (*models.Chart, error)
	UpdateSettings(ctx context.Context, settings *models.Settings, installationID string) (*models.Settings, error)
}

var _ API = (*Client)(nil)

// Client calls the REST API through a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *breaker.Breaker
}

// New creates a client for baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		cb: breaker.New(breaker.Settings{
			Name:         "panel-api",
			IsSuccessful: isClientError,
		}),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *breaker.Breaker {
	return c.cb
}

// GetSettings fetches the stored selection.
func (c *Client) GetSettings(ctx context.Context, installationID string) (*models.Settings, error) {
	var settings models.Settings
	if err := c.do(ctx, http.MethodGet, resourcePath(installationID, "settings"), nil, &settings); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// GetMarketplaces fetches the marketplace universe.
func (c *Client) GetMarketplaces(ctx context.Context, installationID string) ([]models.Marketplace, error) {
	var marketplaces []models.Marketplace
	if err := c.do(ctx, http.MethodGet, resourcePath(installationID, "marketplaces"), nil, &marketplaces); err != nil {
		return nil, fmt.Errorf("get marketplaces: %w", err)
	}
	return marketplaces, nil
}

// GetChart fetches chart data for chartType.
func (c *Client) GetChart(ctx context.Context, chartType string) (*models.Chart, error) {
	var chart models.Chart
	path := "/api/chart?type=" + url.QueryEscape(chartType)
	if err := c.do(ctx, http.MethodGet, path, nil, &chart); err != nil {
		return nil, fmt.Errorf("get chart: %w", err)
	}
	return &chart, nil
}

// UpdateSettings posts settings and returns what the server stored.
func (c *Client) UpdateSettings(ctx context.Context, settings *models.Settings, installationID string) (*models.Settings, error) {
	if settings == nil {
		settings = &models.Settings{}
	}
	body, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	var stored models.Settings
	if err := c.do(ctx, http.MethodPost, resourcePath(installationID, "settings"), body, &stored); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return &stored, nil
}

func resourcePath(installationID, resource string) string {
	if installationID == "" {
		return "/api/" + resource
	}
	return "/api/admin/" + url.PathEscape(installationID) + "/" + resource
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	_, err := breaker.Execute(c.cb, func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: data}
	}

	return decodeBody(resp.Body, out)
}

func decodeBody(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}
