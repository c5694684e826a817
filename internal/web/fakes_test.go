// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"context"
	"io"
	"sync"

	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// fakeAPI keeps settings per installation id.
type fakeAPI struct {
	mu           sync.Mutex
	marketplaces []models.Marketplace
	settings     map[string]models.Settings
	chartErr     error
	updateErr    error
	updates      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		marketplaces: []models.Marketplace{
			{ID: "MP-1", Name: "Europe"},
			{ID: "MP-2", Name: "America"},
		},
		settings: map[string]models.Settings{
			"": {Marketplaces: []models.Marketplace{{ID: "MP-1", Name: "Europe"}}},
		},
	}
}

func (f *fakeAPI) GetSettings(_ context.Context, installationID string) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings[installationID]
	out := s.Clone()
	return &out, nil
}

func (f *fakeAPI) GetMarketplaces(context.Context, string) ([]models.Marketplace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Marketplace(nil), f.marketplaces...), nil
}

func (f *fakeAPI) GetChart(_ context.Context, chartType string) (*models.Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return models.NewSubscriptionChart(chartType, []string{"MP-1"}, []float64{4}), nil
}

func (f *fakeAPI) UpdateSettings(_ context.Context, s *models.Settings, installationID string) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates++
	f.settings[installationID] = s.Clone()
	out := s.Clone()
	return &out, nil
}

func (f *fakeAPI) stored(installationID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings[installationID]
	return s.IDs()
}

type sentMessage struct {
	session, messageType string
	data                 interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *fakeNotifier) SendToSession(session, messageType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{session, messageType, data})
}
