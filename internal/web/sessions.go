// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marketpanel/internal/cache"
	"github.com/tomtom215/marketpanel/internal/client"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/panel"
)

// SessionCookie names the panel session cookie.
const SessionCookie = "mp_session"

// Session is the panel state of one browser.
type Session struct {
	ID       string
	host     *sessionHost
	Settings *panel.SettingsPage
}

// Sessions creates and tracks panel sessions.
type Sessions struct {
	api      client.API
	notifier Notifier
	ttl      time.Duration
	secure   bool

	mu    sync.Mutex // serializes session creation
	cache *cache.Cache[*Session]
}

// NewSessions returns a session registry. Sessions idle for longer than ttl
// are closed.
func NewSessions(api client.API, notifier Notifier, ttl time.Duration, secureCookie bool) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Sessions{api: api, notifier: notifier, ttl: ttl, secure: secureCookie}
	s.cache = cache.New[*Session](ttl, cache.WithEvictCallback(func(_ string, sess *Session) {
		sess.Settings.Close()
		metrics.PanelSessions.Dec()
	}))
	return s
}

// Cache exposes the registry for the supervised cleanup loop.
func (s *Sessions) Cache() *cache.Cache[*Session] {
	return s.cache
}

// Resolve returns the session of the request cookie, creating a new session
// when there is none or it expired. The cookie is re-issued on every call so
// its lifetime slides together with the session's idle timeout.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.cache.Get(c.Value); ok {
			s.cache.Touch(c.Value)
			s.setCookie(w, sess.ID)
			return sess, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.create(r.Context())
	if err != nil {
		return nil, err
	}
	s.setCookie(w, sess.ID)
	return sess, nil
}

func (s *Sessions) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Lookup returns an existing session without creating one.
func (s *Sessions) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return s.cache.Get(c.Value)
}

func (s *Sessions) create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	host := newSessionHost(id, s.notifier)
	settings := panel.NewSettingsPage(s.api)
	if err := settings.Attach(ctx, host); err != nil {
		return nil, err
	}

	sess := &Session{ID: id, host: host, Settings: settings}
	s.cache.Set(id, sess)
	metrics.PanelSessions.Inc()
	logging.Ctx(ctx).Debug().Str("session", id).Msg("Panel session created")
	return sess, nil
}
