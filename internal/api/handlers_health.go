// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marketpanel/internal/breaker"
	"github.com/tomtom215/marketpanel/internal/cache"
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status         string       `json:"status"` // healthy or degraded
	StoreConnected bool         `json:"store_connected"`
	PlatformState  string       `json:"platform_circuit,omitempty"`
	ChartCache     *cache.Stats `json:"chart_cache,omitempty"`
	Uptime         float64      `json:"uptime_seconds"`
}

type breakerReporter interface {
	Breaker() *breaker.Breaker
}

// Health reports store connectivity, the platform circuit and cache usage.
// It always answers 200; use /api/health/ready for gating traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := HealthStatus{
		Status:         "healthy",
		StoreConnected: storeConnected,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if !storeConnected {
		status.Status = "degraded"
	}

	if reporter, ok := h.catalog.(breakerReporter); ok {
		state := reporter.Breaker().State().String()
		status.PlatformState = state
		if state == "open" {
			status.Status = "degraded"
		}
	}

	if h.charts != nil {
		stats := h.charts.GetStats()
		status.ChartCache = &stats
	}

	NewResponseWriter(w, r).Success(status)
}

// HealthLive answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady answers 200 once the settings store is usable, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		rw.ServiceUnavailable("Settings store not ready")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
