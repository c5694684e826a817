// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/logging"
)

type contextKey string

// ClaimsContextKey holds *Claims on authenticated requests.
const ClaimsContextKey contextKey = "claims"

// AdminCookie carries an admin token for the browser panel, which cannot
// attach an Authorization header to page navigations.
const AdminCookie = "mp_admin"

// ErrNotAdmin is returned for a valid token without the admin role.
var ErrNotAdmin = errors.New("forbidden: admin role required")

var (
	errMissingToken  = errors.New("unauthorized: missing token")
	errInvalidHeader = errors.New("unauthorized: invalid authorization header")
)

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// Middleware enforces JWT authentication on the admin routes.
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates an authentication middleware.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// Authenticate is middleware that requires a valid bearer token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractJWTToken(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin authenticates the request and requires the admin role.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ValidateAdminToken validates token and requires the admin role.
func (m *Middleware) ValidateAdminToken(token string) (*Claims, error) {
	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// AdminClaims authenticates an admin from the bearer header, falling back to
// AdminCookie when no header is sent.
func (m *Middleware) AdminClaims(r *http.Request) (*Claims, error) {
	token, err := extractJWTToken(r)
	if errors.Is(err, errMissingToken) {
		cookie, cerr := r.Cookie(AdminCookie)
		if cerr != nil || cookie.Value == "" {
			return nil, errMissingToken
		}
		token, err = cookie.Value, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ValidateAdminToken(token)
}

// extractJWTToken reads "Authorization: Bearer <token>".
func extractJWTToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errInvalidHeader
	}

	return parts[1], nil
}

// writeAuthError writes the API error envelope. The api package depends on
// auth, so the envelope shape is repeated here instead of imported.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
