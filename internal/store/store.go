// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package store persists installation settings in BadgerDB.
//
// Each installation owns one key, "settings:<installation id>", holding a JSON
// record with the selected marketplaces and the time of the last write.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/models"
)

const settingsKeyPrefix = "settings:"

var (
	// ErrNotFound is returned when an installation has never saved settings.
	ErrNotFound = errors.New("settings not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("settings store is closed")

	// ErrEmptyInstallationID rejects writes without an owner.
	ErrEmptyInstallationID = errors.New("installation id cannot be empty")
)

// record is the stored value.
type record struct {
	Settings  models.Settings `json:"settings"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is a BadgerDB-backed settings repository.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = newBadgerLogger()

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return New(db), nil
}

// New wraps an already opened database. The Store takes ownership of db.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Get returns the settings of installationID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, installationID string) (models.Settings, error) {
	rec, err := s.getRecord(ctx, installationID)
	if err != nil {
		return models.Settings{}, err
	}
	return rec.Settings, nil
}

// UpdatedAt returns when installationID last saved its settings.
func (s *Store) UpdatedAt(ctx context.Context, installationID string) (time.Time, error) {
	rec, err := s.getRecord(ctx, installationID)
	if err != nil {
		return time.Time{}, err
	}
	return rec.UpdatedAt, nil
}

func (s *Store) getRecord(ctx context.Context, installationID string) (rec record, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordStoreOperation("get", time.Since(start), nil)
			return
		}
		metrics.RecordStoreOperation("get", time.Since(start), err)
	}()

	if err := s.usable(ctx); err != nil {
		return record{}, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingsKey(installationID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// Put replaces the settings of installationID.
func (s *Store) Put(ctx context.Context, installationID string, settings models.Settings) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("put", time.Since(start), err) }()

	if installationID == "" {
		return ErrEmptyInstallationID
	}
	if err := s.usable(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(record{Settings: settings, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(settingsKey(installationID), data); err != nil {
			return fmt.Errorf("set settings: %w", err)
		}
		return nil
	})
}

// Delete removes the settings of installationID. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, installationID string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("delete", time.Since(start), err) }()

	if err := s.usable(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(settingsKey(installationID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete settings: %w", err)
		}
		return nil
	})
}

// DB returns the underlying database for packages that keep their own
// keyspace next to the settings, such as the audit trail.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Ping reports whether the store can serve requests, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// RunGC reclaims value log space until badger reports nothing left to rewrite.
func (s *Store) RunGC(discardRatio float64) error {
	if err := s.usable(context.Background()); err != nil {
		return err
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func settingsKey(installationID string) []byte {
	return []byte(settingsKeyPrefix + installationID)
}
