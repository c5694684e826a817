// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open in-memory badger: %v", err)
	}
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "EIN-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	want := models.Settings{Marketplaces: []models.Marketplace{{ID: "MP-1", Name: "US"}, {ID: "MP-2", Name: "EU"}}}

	if err := s.Put(ctx, "EIN-1", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "EIN-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Marketplaces) != 2 || got.Marketplaces[0].ID != "MP-1" || got.Marketplaces[1].Name != "EU" {
		t.Errorf("Get() = %+v", got)
	}

	updated, err := s.UpdatedAt(ctx, "EIN-1")
	if err != nil {
		t.Fatalf("UpdatedAt() error = %v", err)
	}
	if time.Since(updated) > time.Minute {
		t.Errorf("UpdatedAt() = %v, expected a recent time", updated)
	}

	if _, err := s.Get(ctx, "EIN-2"); !errors.Is(err, ErrNotFound) {
		t.Error("settings leaked across installations")
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "EIN-1", models.Settings{Marketplaces: []models.Marketplace{{ID: "MP-1"}}})
	if err := s.Put(ctx, "EIN-1", models.Settings{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "EIN-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Marketplaces) != 0 {
		t.Errorf("expected empty selection after overwrite, got %+v", got)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "EIN-1", models.Settings{Marketplaces: []models.Marketplace{{ID: "MP-1"}}})
	if err := s.Delete(ctx, "EIN-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "EIN-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "EIN-1"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	if err := s.Put(context.Background(), "", models.Settings{}); !errors.Is(err, ErrEmptyInstallationID) {
		t.Errorf("Put(\"\") error = %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Get(canceled, "EIN-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get(canceled) error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close error = %v, want ErrClosed", err)
	}
}

func TestStore_RunGCInMemory(t *testing.T) {
	t.Parallel()

	if err := newTestStore(t).RunGC(0.5); err != nil {
		t.Errorf("RunGC() in memory error = %v, want nil", err)
	}
}

func TestOpen_OnDisk(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "settings")
	s, err := Open(config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, "EIN-1", models.Settings{Marketplaces: []models.Marketplace{{ID: "MP-9"}}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "EIN-1")
	if err != nil || len(got.Marketplaces) != 1 || got.Marketplaces[0].ID != "MP-9" {
		t.Errorf("settings not persisted: %+v, %v", got, err)
	}
}
