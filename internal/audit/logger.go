// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// DefaultBufferSize is used when NewLogger gets a non-positive size.
const DefaultBufferSize = 1000

const (
	writeTimeout = 5 * time.Second
	drainTimeout = 5 * time.Second
)

// Logger buffers events and writes them to a Store from Serve.
type Logger struct {
	store   Store
	events  chan *Event
	dropped atomic.Uint64
}

// NewLogger returns a logger writing to store. Nothing is persisted until
// Serve runs.
func NewLogger(store Store, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Logger{
		store:  store,
		events: make(chan *Event, bufferSize),
	}
}

// Serve drains the buffer until ctx is canceled, then flushes what is left.
// It implements suture.Service.
func (l *Logger) Serve(ctx context.Context) error {
	log := logging.WithComponent("audit")
	log.Debug().Msg("Audit writer started")
	for {
		select {
		case <-ctx.Done():
			l.drain()
			log.Debug().Msg("Audit writer stopped")
			return ctx.Err()
		case event := <-l.events:
			l.write(context.Background(), event)
		}
	}
}

// String identifies the service in supervisor logs.
func (l *Logger) String() string {
	return "audit-log"
}

func (l *Logger) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-l.events:
			l.write(ctx, event)
		default:
			return
		}
	}
}

func (l *Logger) write(parent context.Context, event *Event) {
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("Failed to save audit event")
		return
	}
	logging.Debug().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Str("installation_id", event.InstallationID).
		Str("actor", event.Actor.ID).
		Msg("Audit event recorded")
}

// Log queues event for writing. It fills in ID and Timestamp when unset and
// drops the event when the buffer is full.
func (l *Logger) Log(event *Event) {
	if l == nil || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}

	select {
	case l.events <- event:
	default:
		l.dropped.Add(1)
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Query reads events from the store. A nil logger returns an empty list.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if l == nil {
		return []Event{}, nil
	}
	return l.store.Query(ctx, filter)
}

// LogSettingsSaved records a marketplace selection change.
func (l *Logger) LogSettingsSaved(installationID string, actor Actor, source Source, marketplaces []string) {
	l.Log(&Event{
		Type:           EventTypeSettingsSaved,
		InstallationID: installationID,
		Actor:          actor,
		Source:         source,
		Description:    fmt.Sprintf("Selected %d marketplaces", len(marketplaces)),
		Marketplaces:   append([]string(nil), marketplaces...),
	})
}

// LogSettingsSaveFailed records a save the store rejected.
func (l *Logger) LogSettingsSaveFailed(installationID string, actor Actor, source Source, err error) {
	l.Log(&Event{
		Type:           EventTypeSettingsSaved,
		Outcome:        OutcomeFailure,
		InstallationID: installationID,
		Actor:          actor,
		Source:         source,
		Description:    "Settings save failed",
		Error:          err.Error(),
	})
}

// LogInstalled records that the platform installed the extension.
func (l *Logger) LogInstalled(installationID, account string, actor Actor, source Source) {
	l.Log(&Event{
		Type:           EventTypeInstallationInstalled,
		InstallationID: installationID,
		Actor:          actor,
		Source:         source,
		Account:        account,
		Description:    "Extension installed",
	})
}

// LogUninstalled records that the platform removed the extension and its
// settings were deleted.
func (l *Logger) LogUninstalled(installationID, account string, actor Actor, source Source) {
	l.Log(&Event{
		Type:           EventTypeInstallationUninstalled,
		InstallationID: installationID,
		Actor:          actor,
		Source:         source,
		Account:        account,
		Description:    "Extension removed, settings deleted",
	})
}
