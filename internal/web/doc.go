// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package web serves the server-rendered panel pages under /static and the
// notification websocket at /ws.
//
// Each browser gets a panel session identified by the mp_session cookie.
// The session owns a host (flash list plus websocket push) and a
// panel.SettingsPage, so context changes and saves of one browser are
// serialized against one UIState. Sessions expire after the configured TTL
// of inactivity, and the cookie is re-issued on every visit.
//
// The default installation is open to everyone. Other installations need an
// admin, authenticated by a bearer token or by the mp_admin cookie set on
// /static/login.html.
//
// Charts are rendered to inline SVG with go-chart.
package web
