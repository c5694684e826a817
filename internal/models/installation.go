// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package models

// Installation lifecycle statuses delivered by the platform.
const (
	InstallationStatusInstalled   = "installed"
	InstallationStatusUninstalled = "uninstalled"
)

// AccountRef identifies the account owning an installation.
type AccountRef struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// EnvironmentRef identifies the platform environment an installation lives in.
type EnvironmentRef struct {
	ID string `json:"id"`
}

// InstallationEvent is posted by the platform when an installation changes status.
type InstallationEvent struct {
	ID          string         `json:"id" validate:"required,max=64"`
	Status      string         `json:"status" validate:"required,oneof=installed uninstalled"`
	Owner       AccountRef     `json:"owner" validate:"required"`
	Environment EnvironmentRef `json:"environment"`
}

// Account renders the owner the way lifecycle log lines show it.
func (e *InstallationEvent) Account() string {
	return e.Owner.Name + " (" + e.Owner.ID + ")"
}
