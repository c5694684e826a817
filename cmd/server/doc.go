// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package main is the entry point for the Marketpanel server.

Marketpanel is an administrative panel for a marketplace platform extension:
operators view subscription charts and pick which marketplaces are active for
an installation. One process serves:

  - the REST API under /api (settings, marketplaces, chart, admin and
    installation lifecycle and audit endpoints)
  - the server-rendered panel pages under /static
  - the notification websocket at /ws
  - health endpoints under /api/health and Prometheus metrics at /metrics

# Application Architecture

	RootSupervisor ("marketpanel")
	├── DataSupervisor ("data-layer")
	│   ├── settings-store-gc
	│   ├── chart-cache-cleanup
	│   ├── panel-sessions-cache-cleanup
	│   └── audit-log (when AUDIT_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Settings store: BadgerDB, shared with the audit trail
 4. Platform client: marketplace catalog and subscription counts
 5. Auth: JWT manager; the panel mints its own admin token
 6. API router, panel pages and websocket hub
 7. Supervisor tree

# Configuration

Environment variables (see internal/config for the full list):

	HTTP_PORT=8080
	PLATFORM_URL=https://api.platform.example/public/v1
	PLATFORM_API_KEY=...
	STORE_PATH=/data/settings
	JWT_SECRET=$(openssl rand -base64 32)
	CORS_ORIGINS=https://portal.example.com
	AUDIT_RETENTION=2160h
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests within HTTP_TIMEOUT, websocket clients are closed and the
store is flushed before exit.
*/
package main
