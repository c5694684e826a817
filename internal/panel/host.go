// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"context"
)

// Notification events understood by the host.
const (
	EventSnackbarMessage = "snackbar:message"
	EventSnackbarError   = "snackbar:error"
)

// InstallationContext is what the host publishes on a context change.
// An empty ObjectID selects the default (non-admin) API paths.
type InstallationContext struct {
	ObjectID string `json:"objectId"`
}

// WatchOptions controls a subscription.
type WatchOptions struct {
	// Immediate delivers the current context right away, before any change.
	Immediate bool
}

// WatchHandler receives context changes.
type WatchHandler func(ctx context.Context, ic InstallationContext)

// Host is the application embedding the panel pages.
type Host interface {
	// Emit sends a notification to the user.
	Emit(event string, payload any)

	// Watch subscribes handler to context changes matching pattern ("*" for all).
	Watch(pattern string, handler WatchHandler, opts WatchOptions) error
}

func notifyError(host Host, err error) {
	if host == nil || err == nil {
		return
	}
	host.Emit(EventSnackbarError, err.Error())
}

func notifyMessage(host Host, message string) {
	if host == nil {
		return
	}
	host.Emit(EventSnackbarMessage, message)
}
