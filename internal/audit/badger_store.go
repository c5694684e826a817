// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/metrics"
)

const keyPrefix = "audit:"

// BadgerStore keeps events in a Badger database shared with other keyspaces.
// Keys sort by installation, then by time:
//
//	audit:<installation>\x00<unix nanos, 20 digits>:<event id>
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
}

// NewBadgerStore returns a store writing to db. Events expire after retention;
// zero keeps them forever.
func NewBadgerStore(db *badger.DB, retention time.Duration) *BadgerStore {
	return &BadgerStore{db: db, retention: retention}
}

// Save writes event.
func (s *BadgerStore) Save(ctx context.Context, event *Event) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("audit_save", time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	entry := badger.NewEntry(eventKey(event), data)
	if s.retention > 0 {
		entry = entry.WithTTL(s.retention)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set audit event: %w", err)
		}
		return nil
	})
}

// Query returns up to filter.Limit matching events, most recent first. With an
// installation id the scan walks that installation's keys backwards and stops
// early; without one every event is read and sorted.
func (s *BadgerStore) Query(ctx context.Context, filter Filter) (events []Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("audit_query", time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := filter.limit()
	scoped := filter.InstallationID != ""
	prefix := []byte(keyPrefix)
	if scoped {
		prefix = installationPrefix(filter.InstallationID)
	}

	events = make([]Event, 0)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = scoped
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if scoped {
			seek = append(append([]byte{}, prefix...), 0xff)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("read audit event: %w", err)
			}
			if !filter.matches(&e) {
				continue
			}
			events = append(events, e)
			if scoped && len(events) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !scoped {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.After(events[j].Timestamp)
		})
		if len(events) > limit {
			events = events[:limit]
		}
	}
	return events, nil
}

func installationPrefix(installationID string) []byte {
	return []byte(keyPrefix + installationID + "\x00")
}

func eventKey(e *Event) []byte {
	return fmt.Appendf(installationPrefix(e.InstallationID), "%020d:%s", e.Timestamp.UnixNano(), e.ID)
}
