// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package api provides the HTTP REST API layer for Marketpanel.

Key Components:

  - Router: chi route tree and middleware stack
  - Handler: request handlers for settings, marketplaces, charts, lifecycle
    events, audit and health
  - Response formatting: resources are written as bare JSON so the panel's
    client can decode them directly; errors and probes use the APIResponse
    envelope
  - Rate limiting and CORS: ChiMiddleware, configured from SecurityConfig

Endpoints:

1. Installation scoped (X-Installation-Id header, else the default installation):
  - GET/POST /api/settings
  - GET /api/marketplaces
  - GET /api/chart?type=bar

2. Admin (JWT with role admin):
  - GET/POST /api/admin/{id}/settings
  - GET /api/admin/{id}/marketplaces
  - GET /api/admin/{id}/audit
  - POST /api/events/installation

3. Operations:
  - GET /api/health, /api/health/live, /api/health/ready
  - GET /metrics

Upstream platform errors keep their status code and body. A platform whose
circuit breaker is open answers 503.

Example:

	handler := api.NewHandler(settings, catalog, charts, cfg)
	handler.SetAuditLogger(auditLog)
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddleware(nil))
	router.Mount(panelWeb.Routes)
	srv := &http.Server{Handler: router.SetupChi()}
*/
package api
