// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"net/http"
)

// ListMarketplaces returns every marketplace known to the platform.
func (h *Handler) ListMarketplaces(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	marketplaces, err := h.catalog.ListMarketplaces(r.Context())
	if err != nil {
		writePlatformError(rw, err)
		return
	}
	rw.Resource(marketplaces)
}

// ListAdminMarketplaces is ListMarketplaces on the admin path. The universe
// does not depend on the installation.
func (h *Handler) ListAdminMarketplaces(w http.ResponseWriter, r *http.Request) {
	withAdminInstallation(h.ListMarketplaces)(w, r)
}
