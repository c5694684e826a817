// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// InstallationHeader names the installation a non-admin request acts for.
// The hosting platform sets it when proxying panel traffic.
const InstallationHeader = "X-Installation-Id"

type installationKey struct{}

// Installation resolves the request installation from InstallationHeader,
// falling back to defaultID, and stores it in the request context.
func Installation(defaultID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(InstallationHeader))
			if id == "" {
				id = defaultID
			}
			next.ServeHTTP(w, r.WithContext(WithInstallationID(r.Context(), id)))
		})
	}
}

// WithInstallationID stores id for InstallationID and for log enrichment.
func WithInstallationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, installationKey{}, id)
	return logging.ContextWithInstallationID(ctx, id)
}

// InstallationID returns the installation resolved by Installation, or "".
func InstallationID(ctx context.Context) string {
	if id, ok := ctx.Value(installationKey{}).(string); ok {
		return id
	}
	return ""
}
