// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package store

import (
	"context"
	"time"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// DefaultGCInterval is how often GCService compacts the value log.
const DefaultGCInterval = 10 * time.Minute

// GCService runs value log garbage collection under the supervisor.
type GCService struct {
	store    *Store
	interval time.Duration
}

// NewGCService returns a supervised GC loop for store.
func NewGCService(store *Store, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &GCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunGC(0.5); err != nil {
				logging.Warn().Err(err).Msg("settings store GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (g *GCService) String() string {
	return "settings-store-gc"
}
