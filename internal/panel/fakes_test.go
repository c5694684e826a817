// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/marketpanel/internal/models"
)

var errNetwork = errors.New("network unreachable")

type savedSettings struct {
	installationID string
	settings       models.Settings
}

type fakeAPI struct {
	mu sync.Mutex

	marketplaces []models.Marketplace
	settings     models.Settings
	chart        *models.Chart

	marketplacesErr error
	settingsErr     error
	chartErr        error
	updateErr       error

	// onMarketplaces runs before GetMarketplaces answers; it may block.
	onMarketplaces func(ctx context.Context, installationID string) error
	// onUpdate runs before UpdateSettings answers; it may block.
	onUpdate func(ctx context.Context) error

	saved []savedSettings
	paths []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		marketplaces: []models.Marketplace{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}},
		settings:     models.Settings{Marketplaces: []models.Marketplace{{ID: "b", Name: "B"}}},
		chart:        models.NewSubscriptionChart("bar", []string{"b"}, []float64{3}),
	}
}

func (f *fakeAPI) record(path string) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
}

func (f *fakeAPI) GetSettings(_ context.Context, installationID string) (*models.Settings, error) {
	f.record("settings:" + installationID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	s := f.settings.Clone()
	return &s, nil
}

func (f *fakeAPI) GetMarketplaces(ctx context.Context, installationID string) ([]models.Marketplace, error) {
	f.record("marketplaces:" + installationID)
	f.mu.Lock()
	hook := f.onMarketplaces
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, installationID); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marketplacesErr != nil {
		return nil, f.marketplacesErr
	}
	out := make([]models.Marketplace, len(f.marketplaces))
	copy(out, f.marketplaces)
	return out, nil
}

func (f *fakeAPI) GetChart(_ context.Context, chartType string) (*models.Chart, error) {
	f.record("chart:" + chartType)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return f.chart.Clone(), nil
}

func (f *fakeAPI) UpdateSettings(ctx context.Context, settings *models.Settings, installationID string) (*models.Settings, error) {
	f.mu.Lock()
	hook := f.onUpdate
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.saved = append(f.saved, savedSettings{installationID: installationID, settings: settings.Clone()})
	return settings, nil
}

func (f *fakeAPI) savedCalls() []savedSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]savedSettings(nil), f.saved...)
}

type emitted struct {
	event   string
	payload any
}

type fakeHost struct {
	mu       sync.Mutex
	events   []emitted
	handlers []WatchHandler
	current  InstallationContext
	watchErr error
}

func (h *fakeHost) Emit(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, emitted{event: event, payload: payload})
}

func (h *fakeHost) Watch(_ string, handler WatchHandler, opts WatchOptions) error {
	h.mu.Lock()
	if h.watchErr != nil {
		h.mu.Unlock()
		return h.watchErr
	}
	h.handlers = append(h.handlers, handler)
	current := h.current
	h.mu.Unlock()

	if opts.Immediate {
		handler(context.Background(), current)
	}
	return nil
}

func (h *fakeHost) publish(ctx context.Context, ic InstallationContext) {
	h.mu.Lock()
	h.current = ic
	handlers := append([]WatchHandler(nil), h.handlers...)
	h.mu.Unlock()
	for _, fn := range handlers {
		fn(ctx, ic)
	}
}

func (h *fakeHost) emitted() []emitted {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]emitted(nil), h.events...)
}
