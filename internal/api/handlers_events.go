// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"net/http"

	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/validation"
)

type eventAck struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Removed bool   `json:"settings_removed"`
}

// InstallationEvent handles installation lifecycle events from the platform.
// An "uninstalled" event removes the stored settings of that installation.
func (h *Handler) InstallationEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	var event models.InstallationEvent
	if err := decodeJSONBody(w, r, &event); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&event); verr != nil {
		rw.ValidationError(verr)
		return
	}

	log := logging.Ctx(logging.ContextWithInstallationID(ctx, event.ID))
	metrics.RecordInstallationEvent(event.Status)

	ack := eventAck{ID: event.ID, Status: event.Status}
	switch event.Status {
	case models.InstallationStatusInstalled:
		log.Info().
			Str("account", event.Account()).
			Str("environment", event.Environment.ID).
			Msg("Extension installed")
		h.audit.LogInstalled(event.ID, event.Account(), auditActor(r), audit.SourceFromRequest(r))
	case models.InstallationStatusUninstalled:
		log.Info().
			Str("account", event.Account()).
			Str("environment", event.Environment.ID).
			Msg("Extension removed")
		if err := h.store.Delete(ctx, event.ID); err != nil {
			rw.StoreError(err)
			return
		}
		h.invalidateCharts(event.ID)
		h.audit.LogUninstalled(event.ID, event.Account(), auditActor(r), audit.SourceFromRequest(r))
		ack.Removed = true
	}

	rw.Success(ack)
}
