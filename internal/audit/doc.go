// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package audit records who changed an installation's marketplace selection
// and when the platform installed or removed the extension.
//
// # Architecture
//
// Handlers call Logger.Log, which never blocks. A supervised writer drains the
// buffer into a Store:
//
//	Logger.Log() -> event buffer (chan) -> Logger.Serve -> BadgerStore
//	                     |
//	               full buffer drops
//
// BadgerStore keeps events in the settings database under the "audit:" key
// prefix. Each entry carries a Badger TTL, so retention needs no cleanup job.
//
// # Usage
//
//	auditStore := audit.NewBadgerStore(settings.DB(), cfg.Audit.Retention)
//	auditLog := audit.NewLogger(auditStore, cfg.Audit.BufferSize)
//	tree.AddDataService(auditLog)
//
//	auditLog.LogSettingsSaved(ctx, "EIN-1", actor, audit.SourceFromRequest(r), ids)
//
//	events, err := auditLog.Query(ctx, audit.Filter{InstallationID: "EIN-1", Limit: 20})
//
// A nil *Logger is valid and records nothing.
package audit
