// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package panel holds the page controllers of the marketplace panel.

A controller owns a UIState and drives it through the API client. Renderers
never look at the controller's fields directly; they take a Snapshot.

Region visibility is a single enum:

	RegionHidden -> RegionLoading -> RegionContent
	                              \-> RegionError

A Loader guard moves the region into RegionLoading and is released with
defer, so the region never stays in RegionLoading after a flow returns.

ChartPage runs once per page view: it fetches the settings and the chart
concurrently and shows both, or an error.

SettingsPage is re-entrant. Every context change from the Host starts a new
generation and cancels the previous one; a superseded run commits nothing.
Save reconciles the checked selections against a fresh marketplace list and
posts them. It never rolls back the selections on failure.

A nil Host stands for "no host application": the flows that need it return
immediately without reporting an error.
*/
package panel
