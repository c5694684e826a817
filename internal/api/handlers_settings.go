// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/middleware"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/store"
	"github.com/tomtom215/marketpanel/internal/validation"
)

// GetSettings returns the settings of the request installation.
//
// The installation comes from the X-Installation-Id header, or from
// panel.default_installation when the header is absent. An installation that
// never saved anything has an empty selection.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	settings, err := h.loadSettings(r.Context(), middleware.InstallationID(r.Context()))
	if err != nil {
		rw.StoreError(err)
		return
	}
	rw.Resource(settings)
}

// SaveSettings validates and stores the posted settings, then echoes them.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	installationID := middleware.InstallationID(ctx)

	var settings models.Settings
	if err := decodeJSONBody(w, r, &settings); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&settings); verr != nil {
		rw.ValidationError(verr)
		return
	}

	if err := h.store.Put(ctx, installationID, settings); err != nil {
		h.audit.LogSettingsSaveFailed(installationID, auditActor(r), audit.SourceFromRequest(r), err)
		rw.StoreError(err)
		return
	}
	h.invalidateCharts(installationID)
	h.audit.LogSettingsSaved(installationID, auditActor(r), audit.SourceFromRequest(r), settings.IDs())

	logging.Ctx(ctx).Info().
		Int("marketplaces", len(settings.Marketplaces)).
		Msg("Settings saved")

	stored, err := h.loadSettings(ctx, installationID)
	if err != nil {
		rw.StoreError(err)
		return
	}
	rw.Resource(stored)
}

// GetAdminSettings returns the settings of installation {id}.
func (h *Handler) GetAdminSettings(w http.ResponseWriter, r *http.Request) {
	withAdminInstallation(h.GetSettings)(w, r)
}

// SaveAdminSettings stores the settings of installation {id}.
func (h *Handler) SaveAdminSettings(w http.ResponseWriter, r *http.Request) {
	withAdminInstallation(h.SaveSettings)(w, r)
}

func (h *Handler) loadSettings(ctx context.Context, installationID string) (models.Settings, error) {
	settings, err := h.store.Get(ctx, installationID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Settings{Marketplaces: []models.Marketplace{}}, nil
	}
	if err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}
