// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"context"
	"sync"

	"github.com/tomtom215/marketpanel/internal/panel"
)

// Notifier pushes a notification to every connection of a session.
type Notifier interface {
	SendToSession(session, messageType string, data interface{})
}

// Flash is a notification shown inline on the next rendered page.
type Flash struct {
	Event   string
	Message string
}

// IsError reports whether the flash came from a snackbar:error event.
func (f Flash) IsError() bool {
	return f.Event == panel.EventSnackbarError
}

type watcher struct {
	pattern string
	handler panel.WatchHandler
}

// sessionHost is the panel.Host of one browser session.
type sessionHost struct {
	session  string
	notifier Notifier

	mu       sync.Mutex
	flash    []Flash
	current  *panel.InstallationContext
	watchers []watcher
}

func newSessionHost(session string, notifier Notifier) *sessionHost {
	return &sessionHost{session: session, notifier: notifier}
}

// Emit implements panel.Host.
func (h *sessionHost) Emit(event string, payload any) {
	msg, _ := payload.(string)

	h.mu.Lock()
	h.flash = append(h.flash, Flash{Event: event, Message: msg})
	h.mu.Unlock()

	if h.notifier != nil {
		h.notifier.SendToSession(h.session, event, payload)
	}
}

// Watch implements panel.Host. pattern "*" matches every installation, any
// other pattern matches that installation id only.
func (h *sessionHost) Watch(pattern string, handler panel.WatchHandler, opts panel.WatchOptions) error {
	h.mu.Lock()
	h.watchers = append(h.watchers, watcher{pattern: pattern, handler: handler})
	var current *panel.InstallationContext
	if opts.Immediate && h.current != nil {
		ic := *h.current
		current = &ic
	}
	h.mu.Unlock()

	if current != nil && matches(pattern, *current) {
		handler(context.Background(), *current)
	}
	return nil
}

// Publish records ic as the current context and runs the matching watchers
// synchronously, in subscription order.
func (h *sessionHost) Publish(ctx context.Context, ic panel.InstallationContext) {
	h.mu.Lock()
	h.current = &ic
	watchers := append([]watcher(nil), h.watchers...)
	h.mu.Unlock()

	for _, w := range watchers {
		if matches(w.pattern, ic) {
			w.handler(ctx, ic)
		}
	}
}

// Current returns the last published context.
func (h *sessionHost) Current() (panel.InstallationContext, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return panel.InstallationContext{}, false
	}
	return *h.current, true
}

// DrainFlash returns and clears the pending notifications.
func (h *sessionHost) DrainFlash() []Flash {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.flash
	h.flash = nil
	return out
}

func matches(pattern string, ic panel.InstallationContext) bool {
	return pattern == "*" || pattern == ic.ObjectID
}
