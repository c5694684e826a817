// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/cache"
	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/platform"
)

// SettingsStore persists the marketplace selection per installation.
// *store.Store implements it.
type SettingsStore interface {
	Get(ctx context.Context, installationID string) (models.Settings, error)
	Put(ctx context.Context, installationID string, settings models.Settings) error
	Delete(ctx context.Context, installationID string) error
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: request decoding and upstream error mapping
//   - handlers_settings.go: settings read/write, default and admin paths
//   - handlers_marketplaces.go: marketplace universe
//   - handlers_chart.go: subscription chart data with caching
//   - handlers_events.go: installation lifecycle events
//   - handlers_health.go: health probes
type Handler struct {
	store     SettingsStore
	catalog   platform.Catalog
	charts    *cache.Cache[*models.Chart]
	config    *config.Config
	audit     *audit.Logger
	startTime time.Time

	chartMu   sync.Mutex
	chartGens map[string]uint64 // bumped on every settings change
}

// NewHandler creates the API handler.
//
// charts may be nil, in which case chart data is computed on every request.
func NewHandler(store SettingsStore, catalog platform.Catalog, charts *cache.Cache[*models.Chart], cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		catalog:   catalog,
		charts:    charts,
		config:    cfg,
		startTime: time.Now(),
		chartGens: make(map[string]uint64),
	}
}

func (h *Handler) defaultInstallation() string {
	if h.config == nil || h.config.Panel.DefaultInstallation == "" {
		return "default"
	}
	return h.config.Panel.DefaultInstallation
}

// SetAuditLogger records settings changes and lifecycle events to l. Without
// one the handler audits nothing.
func (h *Handler) SetAuditLogger(l *audit.Logger) {
	h.audit = l
}
