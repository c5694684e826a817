// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeSettingsSaved           EventType = "settings.saved"
	EventTypeInstallationInstalled   EventType = "installation.installed"
	EventTypeInstallationUninstalled EventType = "installation.uninstalled"
)

// Outcome is the result of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit record.
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	Outcome        Outcome   `json:"outcome"`
	InstallationID string    `json:"installation_id"`
	Actor          Actor     `json:"actor"`
	Source         Source    `json:"source"`
	Description    string    `json:"description"`

	// Marketplaces lists the selected marketplace ids after a save.
	Marketplaces []string `json:"marketplaces,omitempty"`

	// Account is the platform account owning the installation, for
	// lifecycle events.
	Account string `json:"account,omitempty"`

	Error string `json:"error,omitempty"`
}

// Actor identifies who performed the action.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// AnonymousActor stands in for unauthenticated installation-scoped calls.
var AnonymousActor = Actor{ID: "installation"}

// Source describes where the request came from.
type Source struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SourceFromRequest builds a Source from r. RemoteAddr is used as-is because
// the router's RealIP middleware has already applied forwarding headers.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// Filter selects events in Query.
type Filter struct {
	// InstallationID restricts results to one installation. Empty matches all.
	InstallationID string

	// Types restricts results to these event types. Empty matches all.
	Types []EventType

	// Limit caps the result size. Zero means DefaultQueryLimit.
	Limit int
}

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultQueryLimit
	case f.Limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return f.Limit
	}
}

func (f Filter) matches(e *Event) bool {
	if f.InstallationID != "" && e.InstallationID != f.InstallationID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, most recent first.
	Query(ctx context.Context, filter Filter) ([]Event, error)
}
