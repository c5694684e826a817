// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/auth"
	"github.com/tomtom215/marketpanel/internal/middleware"
	"github.com/tomtom215/marketpanel/internal/platform"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody decodes a bounded request body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// adminInstallationID returns the decoded {id} path parameter.
func adminInstallationID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid installation id %q: %w", raw, err)
	}
	if id == "" || len(id) > 128 {
		return "", fmt.Errorf("invalid installation id %q", raw)
	}
	return id, nil
}

// withAdminInstallation binds the {id} path parameter as the request installation.
func withAdminInstallation(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := adminInstallationID(r)
		if err != nil {
			NewResponseWriter(w, r).BadRequest(err.Error())
			return
		}
		next(w, r.WithContext(middleware.WithInstallationID(r.Context(), id)))
	}
}

// writePlatformError maps a platform failure onto the response.
// Upstream status answers pass through with their original body.
func writePlatformError(rw *ResponseWriter, err error) {
	var statusErr *platform.StatusError
	switch {
	case errors.As(err, &statusErr):
		rw.Raw(statusErr.StatusCode, "", statusErr.Body)
	case errors.Is(err, platform.ErrUnavailable):
		rw.ServiceUnavailable("Platform temporarily unavailable")
	default:
		rw.ExternalServiceError("platform", err)
	}
}

// auditActor names the authenticated caller, or the anonymous installation
// actor on routes without a token.
func auditActor(r *http.Request) audit.Actor {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return audit.Actor{ID: claims.Username, Role: claims.Role}
	}
	return audit.AnonymousActor
}
