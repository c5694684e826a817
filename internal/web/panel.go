// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/marketpanel/internal/auth"
	"github.com/tomtom215/marketpanel/internal/client"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/panel"
	"github.com/tomtom215/marketpanel/internal/websocket"
)

const maxFormBytes = 64 << 10

// Config configures the panel web surface.
type Config struct {
	// SessionTTL is the idle lifetime of a panel session.
	SessionTTL time.Duration

	// AllowedOrigins are accepted on /ws in addition to the panel's own host.
	AllowedOrigins []string

	// SecureCookie marks the session and admin cookies Secure (HTTPS
	// deployments).
	SecureCookie bool

	// Auth authenticates the admins allowed to open installations other than
	// the default one. Without it only the default installation is served.
	Auth Authorizer
}

// Authorizer authenticates panel admins. *auth.Middleware implements it.
type Authorizer interface {
	AdminClaims(r *http.Request) (*auth.Claims, error)
	ValidateAdminToken(token string) (*auth.Claims, error)
}

// Panel serves the panel pages and the notification websocket.
type Panel struct {
	api      client.API
	hub      *websocket.Hub
	sessions *Sessions
	upgrader *gorillaws.Upgrader
	pages    map[string]*template.Template
	auth     Authorizer
	secure   bool
}

// New creates the panel. hub may be nil, which disables /ws and live
// notifications; flashes still render inline.
func New(api client.API, hub *websocket.Hub, cfg Config) (*Panel, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	var notifier Notifier
	if hub != nil {
		notifier = hub
	}
	return &Panel{
		api:      api,
		hub:      hub,
		sessions: NewSessions(api, notifier, cfg.SessionTTL, cfg.SecureCookie),
		upgrader: websocket.NewUpgrader(cfg.AllowedOrigins),
		pages:    pages,
		auth:     cfg.Auth,
		secure:   cfg.SecureCookie,
	}, nil
}

// Sessions returns the session registry.
func (p *Panel) Sessions() *Sessions {
	return p.sessions
}

// Routes mounts the panel on r. It has the api.RouteRegistrar signature.
func (p *Panel) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/index.html", http.StatusFound)
	})
	r.Get("/static/index.html", p.chartHandler("bar", "Bar chart"))
	r.Get("/static/line.html", p.chartHandler("line", "Line chart"))
	r.Get("/static/settings.html", p.ShowSettings)
	r.Post("/static/settings.html", p.SaveSettings)
	r.Get("/static/login.html", p.ShowLogin)
	r.Post("/static/login.html", p.Login)
	r.Post("/static/logout.html", p.Logout)
	if p.hub != nil {
		r.Get("/ws", p.ServeWS)
	}
}

func (p *Panel) chartHandler(chartType, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := p.resolve(w, r)
		if !ok {
			return
		}

		page := panel.NewChartPage(p.api, sess.host)
		// Failures are reflected in the page state and the flash list.
		_ = page.Run(r.Context(), chartType)
		state := page.Snapshot()

		svg, err := RenderChartSVG(state.Chart)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("chart_type", chartType).Msg("Chart rendering failed")
			sess.host.Emit(panel.EventSnackbarError, err.Error())
		}

		view := newPageView(title, chartType, state, sess.host.DrainFlash())
		view.ChartSVG = svg
		p.render(w, r, http.StatusOK, "chart", view)
	}
}

// ShowSettings renders the settings page. An installation query parameter
// publishes a context change first; the first visit of a session publishes
// the default installation. Any installation but the default one requires an
// admin.
func (p *Panel) ShowSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.resolve(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	current, published := sess.host.Current()
	target := current.ObjectID
	if query.Has("installation") {
		target = query.Get("installation")
	}
	if !p.requireAdmin(w, r, target) {
		return
	}

	if query.Has("installation") {
		sess.host.Publish(r.Context(), panel.InstallationContext{ObjectID: target})
	} else if !published {
		sess.host.Publish(r.Context(), panel.InstallationContext{})
	}

	p.renderSettings(w, r, sess)
}

// SaveSettings applies the posted checkbox states and saves them.
func (p *Panel) SaveSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.resolve(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !p.requireAdmin(w, r, sess.Settings.Snapshot().InstallationID) {
		return
	}

	sess.Settings.SetChecked(r.PostForm["marketplace"])
	err := sess.Settings.Save(r.Context())
	switch {
	case errors.Is(err, panel.ErrNotBound):
		sess.host.Emit(panel.EventSnackbarError, "No installation loaded yet")
	case errors.Is(err, panel.ErrSaveInProgress):
		sess.host.Emit(panel.EventSnackbarError, "A save is already in progress")
	}

	p.renderSettings(w, r, sess)
}

// ServeWS attaches a websocket to the caller's panel session.
func (p *Panel) ServeWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.sessions.Lookup(r)
	if !ok {
		http.Error(w, "panel session required", http.StatusUnauthorized)
		return
	}
	if err := p.hub.ServeClient(r.Context(), w, r, sess.ID, p.upgrader); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket connection not established")
	}
}

// ShowLogin renders the admin sign-in form.
func (p *Panel) ShowLogin(w http.ResponseWriter, r *http.Request) {
	p.renderLogin(w, r, http.StatusOK, safeNext(r.URL.Query().Get("next")), nil)
}

// Login exchanges an admin token for the admin cookie.
func (p *Panel) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostForm.Get("next"))

	if p.auth == nil {
		p.renderLogin(w, r, http.StatusServiceUnavailable, next, []Flash{{Event: panel.EventSnackbarError, Message: "Admin sign-in is not configured"}})
		return
	}
	claims, err := p.auth.ValidateAdminToken(strings.TrimSpace(r.PostForm.Get("token")))
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Panel admin sign-in rejected")
		p.renderLogin(w, r, http.StatusUnauthorized, next, []Flash{{Event: panel.EventSnackbarError, Message: "Invalid admin token"}})
		return
	}

	cookie := &http.Cookie{
		Name:     auth.AdminCookie,
		Value:    strings.TrimSpace(r.PostForm.Get("token")),
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if claims.ExpiresAt != nil {
		cookie.Expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, cookie)
	logging.Ctx(r.Context()).Info().Str("user", claims.Username).Msg("Panel admin signed in")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout drops the admin cookie.
func (p *Panel) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/static/settings.html", http.StatusSeeOther)
}

// requireAdmin allows the default installation to everyone and any other one
// to admins only. A denied page load is sent to the sign-in form.
func (p *Panel) requireAdmin(w http.ResponseWriter, r *http.Request, installationID string) bool {
	if installationID == "" {
		return true
	}
	if p.auth != nil {
		if _, err := p.auth.AdminClaims(r); err == nil {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("installation_id", installationID).Msg("Panel access to installation denied")
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/static/login.html?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return false
	}
	http.Error(w, "admin sign-in required", http.StatusForbidden)
	return false
}

// safeNext keeps sign-in redirects on the panel's own pages.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/static/") || strings.Contains(next, "\\") {
		return "/static/settings.html"
	}
	return next
}

func (p *Panel) renderLogin(w http.ResponseWriter, r *http.Request, status int, next string, flash []Flash) {
	view := newPageView("Sign in", "login", panel.UIState{Region: panel.RegionContent}, flash)
	view.Next = next
	p.render(w, r, status, "login", view)
}

func (p *Panel) renderSettings(w http.ResponseWriter, r *http.Request, sess *Session) {
	view := newPageView("Settings", "settings", sess.Settings.Snapshot(), sess.host.DrainFlash())
	p.render(w, r, http.StatusOK, "settings", view)
}

func (p *Panel) resolve(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := p.sessions.Resolve(w, r)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Panel session could not be created")
		http.Error(w, "panel session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func (p *Panel) render(w http.ResponseWriter, r *http.Request, status int, page string, view pageView) {
	var buf bytes.Buffer
	if err := p.pages[page].ExecuteTemplate(&buf, "layout", view); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("Template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
