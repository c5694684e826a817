// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/validation"
)

type auditQuery struct {
	Limit int    `json:"limit" validate:"gte=0,lte=1000"`
	Type  string `json:"type" validate:"omitempty,oneof=settings.saved installation.installed installation.uninstalled"`
}

// AdminAudit returns the audit trail of one installation, newest first.
//
// GET /api/admin/{id}/audit?limit=50&type=settings.saved
func (h *Handler) AdminAudit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := adminInstallationID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	q := auditQuery{Type: r.URL.Query().Get("type")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			rw.BadRequest("limit must be an integer")
			return
		}
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}

	filter := audit.Filter{InstallationID: id, Limit: q.Limit}
	if q.Type != "" {
		filter.Types = []audit.EventType{audit.EventType(q.Type)}
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.StoreError(err)
		return
	}
	rw.Success(events)
}
