// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marketpanel/internal/auth"
	"github.com/tomtom215/marketpanel/internal/middleware"
)

// RouteRegistrar mounts additional routes (the panel pages) on the root router.
type RouteRegistrar func(r chi.Router)

// Router wires handlers, authentication and Chi middleware together.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
	registrars    []RouteRegistrar
}

// NewRouter creates a router. chiMw may be nil for the default middleware settings.
func NewRouter(handler *Handler, authMw *auth.Middleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		auth:          authMw,
		chiMiddleware: chiMw,
	}
}

// Mount registers extra routes to be added by SetupChi.
func (router *Router) Mount(reg RouteRegistrar) {
	router.registrars = append(router.registrars, reg)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Not found")
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Resource Endpoints
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(middleware.PrometheusMetrics)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Installation(router.handler.defaultInstallation()))

			r.Get("/api/settings", router.handler.GetSettings)
			r.Post("/api/settings", router.handler.SaveSettings)
			r.Get("/api/marketplaces", router.handler.ListMarketplaces)
			r.Get("/api/chart", router.handler.Chart)
		})

		// Admin endpoints require a JWT with the admin role
		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireAdmin)

			r.Get("/api/admin/{id}/settings", router.handler.GetAdminSettings)
			r.Post("/api/admin/{id}/settings", router.handler.SaveAdminSettings)
			r.Get("/api/admin/{id}/marketplaces", router.handler.ListAdminMarketplaces)
			r.Get("/api/admin/{id}/audit", router.handler.AdminAudit)
			r.Post("/api/events/installation", router.handler.InstallationEvent)
		})
	})

	// ========================
	// Metrics Endpoint
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	for _, reg := range router.registrars {
		reg(r)
	}

	return r
}
