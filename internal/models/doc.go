// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package models defines the data shared by the API, the panel controllers
// and the settings store: marketplaces, installation settings, chart payloads
// and installation lifecycle events.
package models
