// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marketpanel/internal/client"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/models"
)

// ErrAlreadyRun is returned by a second ChartPage.Run.
var ErrAlreadyRun = errors.New("chart page already ran")

// ChartPage shows a chart of the selected marketplaces and their list.
type ChartPage struct {
	api  client.API
	host Host

	ran atomic.Bool

	mu    sync.Mutex
	state UIState
}

// NewChartPage creates a chart page. host may be nil; errors are then
// only reflected in the state.
func NewChartPage(api client.API, host Host) *ChartPage {
	return &ChartPage{api: api, host: host, state: newUIState()}
}

// Run loads the page once. Settings and chart data are both required.
func (p *ChartPage) Run(ctx context.Context, chartType string) error {
	if !p.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	loader := startLoading(&p.mu, &p.state, nil)
	defer loader.Release()

	var (
		settings *models.Settings
		chart    *models.Chart
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = p.api.GetSettings(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		chart, err = p.api.GetChart(gctx, chartType)
		return err
	})

	if err := g.Wait(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("chart_type", chartType).Msg("Chart page failed to load")
		loader.Fail(err.Error())
		notifyError(p.host, err)
		metrics.RecordPanelFlow("chart", "error")
		return err
	}

	selections := make([]models.MarketplaceSelection, len(settings.Marketplaces))
	for i := range settings.Marketplaces {
		selections[i] = models.MarketplaceSelection{Marketplace: settings.Marketplaces[i].WithDefaults(), Checked: true}
	}

	loader.Commit(RegionContent, func(s *UIState) {
		s.Chart = chart
		s.Selections = selections
		s.ReadOnly = true
	})
	metrics.RecordPanelFlow("chart", "content")
	return nil
}

// Snapshot returns a deep copy of the page state.
func (p *ChartPage) Snapshot() UIState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}
