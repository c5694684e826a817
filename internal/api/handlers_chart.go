// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/middleware"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/validation"
)

// chartKeySeparator cannot appear in an installation id taken from a header.
const chartKeySeparator = "\x00"

// maxConcurrentCounts bounds the platform requests of one chart.
const maxConcurrentCounts = 4

type chartQuery struct {
	Type string `json:"type" validate:"required,max=32,alphanum"`
}

// Chart returns active subscription counts for the selected marketplaces.
//
// Labels are the selected marketplace ids in selection order; the single
// "Subscriptions" dataset holds one count per label. Any alphanumeric chart
// type is accepted and echoed back.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	q := chartQuery{Type: r.URL.Query().Get("type")}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}

	installationID := middleware.InstallationID(ctx)
	key := chartKey(installationID, q.Type)
	if h.charts != nil {
		if cached, ok := h.charts.Get(key); ok {
			metrics.RecordChartCache(true)
			rw.Resource(cached)
			return
		}
		metrics.RecordChartCache(false)
	}

	gen := h.chartGeneration(installationID)
	settings, err := h.loadSettings(ctx, installationID)
	if err != nil {
		rw.StoreError(err)
		return
	}

	chart, err := h.buildChart(ctx, q.Type, settings)
	if err != nil {
		writePlatformError(rw, err)
		return
	}

	if h.charts != nil && !h.cacheChart(key, installationID, gen, chart.Clone()) {
		logging.Ctx(ctx).Debug().Str("chart_type", q.Type).Msg("Settings changed while building chart, not caching")
	}
	rw.Resource(chart)
}

// buildChart counts active assets per selected marketplace. A marketplace
// selected twice is counted once, at its first position. Counts run
// concurrently; the first platform error cancels the rest.
func (h *Handler) buildChart(ctx context.Context, chartType string, settings models.Settings) (*models.Chart, error) {
	labels := make([]string, 0, len(settings.Marketplaces))
	seen := make(map[string]struct{}, len(settings.Marketplaces))
	for _, id := range settings.IDs() {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		labels = append(labels, id)
	}

	counts := make([]float64, len(labels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCounts)
	for i, id := range labels {
		g.Go(func() error {
			count, err := h.catalog.CountActiveAssets(gctx, id)
			if err != nil {
				return err
			}
			counts[i] = float64(count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return models.NewSubscriptionChart(chartType, labels, counts), nil
}

func chartKey(installationID, chartType string) string {
	return installationID + chartKeySeparator + chartType
}

// chartGeneration returns the settings generation of installationID. A chart
// built from settings read at one generation is only cached while the
// generation is unchanged.
func (h *Handler) chartGeneration(installationID string) uint64 {
	h.chartMu.Lock()
	defer h.chartMu.Unlock()
	return h.chartGens[installationID]
}

// cacheChart stores chart unless the settings of installationID changed
// since gen was read.
func (h *Handler) cacheChart(key, installationID string, gen uint64, chart *models.Chart) bool {
	h.chartMu.Lock()
	defer h.chartMu.Unlock()
	if h.chartGens[installationID] != gen {
		return false
	}
	h.charts.Set(key, chart)
	return true
}

// invalidateCharts drops every cached chart of installationID and fences off
// charts still being built from the old settings. Generations are never
// removed, so a fenced build cannot match again after a reset.
func (h *Handler) invalidateCharts(installationID string) {
	if h.charts == nil {
		return
	}
	h.chartMu.Lock()
	defer h.chartMu.Unlock()
	h.chartGens[installationID]++
	h.charts.DeletePrefix(installationID + chartKeySeparator)
}
