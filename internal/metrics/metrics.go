// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto. Callers
// use the Record* helpers rather than touching the vectors directly so label
// sets stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_api_requests_total",
			Help: "Total number of HTTP requests by route pattern",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpanel_api_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpanel_api_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Circuit breakers around outbound HTTP clients

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Upstream platform

	PlatformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpanel_platform_request_duration_seconds",
			Help:    "Latency of upstream platform API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PlatformRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_platform_request_errors_total",
			Help: "Failed upstream platform API calls",
		},
		[]string{"operation"},
	)

	// Settings store

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpanel_store_operation_duration_seconds",
			Help:    "BadgerDB settings store operation latency",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_store_operation_errors_total",
			Help: "Failed settings store operations",
		},
		[]string{"operation"},
	)

	// Chart cache

	ChartCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpanel_chart_cache_hits_total",
			Help: "Chart responses served from cache",
		},
	)

	ChartCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpanel_chart_cache_misses_total",
			Help: "Chart responses computed from the platform",
		},
	)

	// Panel flows

	PanelFlowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_panel_flows_total",
			Help: "Panel page flows by outcome",
		},
		[]string{"page", "outcome"}, // success, error, superseded
	)

	SettingsSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_settings_saves_total",
			Help: "Settings save actions by result",
		},
		[]string{"result"},
	)

	PanelSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpanel_panel_sessions",
			Help: "Live browser sessions of the admin panel",
		},
	)

	// Notifications websocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpanel_ws_connections",
			Help: "Open notification websocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_ws_messages_sent_total",
			Help: "Notifications delivered over websocket",
		},
		[]string{"event"},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpanel_ws_messages_dropped_total",
			Help: "Notifications dropped because a client buffer was full",
		},
	)

	// Platform lifecycle events

	InstallationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpanel_installation_events_total",
			Help: "Installation lifecycle events received",
		},
		[]string{"status"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPlatformRequest records an upstream call.
func RecordPlatformRequest(operation string, duration time.Duration, err error) {
	PlatformRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		PlatformRequestErrors.WithLabelValues(operation).Inc()
	}
}

// RecordStoreOperation records a settings store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation).Inc()
	}
}

// RecordChartCache records a chart cache lookup.
func RecordChartCache(hit bool) {
	if hit {
		ChartCacheHits.Inc()
	} else {
		ChartCacheMisses.Inc()
	}
}

// RecordPanelFlow records how a panel flow ended.
func RecordPanelFlow(page, outcome string) {
	PanelFlowsTotal.WithLabelValues(page, outcome).Inc()
}

// RecordSettingsSave records the result of a save action.
func RecordSettingsSave(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SettingsSavesTotal.WithLabelValues(result).Inc()
}

// RecordInstallationEvent counts a lifecycle event.
func RecordInstallationEvent(status string) {
	InstallationEventsTotal.WithLabelValues(status).Inc()
}
