// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package models

import "github.com/goccy/go-json"

// Settings is the persisted marketplace selection of one installation.
type Settings struct {
	Marketplaces []Marketplace `json:"marketplaces" validate:"max=500,dive"`
}

// MarshalJSON always emits an array, never null.
//
//nolint:gocritic // value receiver so Settings and *Settings marshal the same way
func (s Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	p := plain(s)
	if p.Marketplaces == nil {
		p.Marketplaces = []Marketplace{}
	}
	return json.Marshal(p)
}

// IDs returns the selected marketplace ids in stored order.
func (s *Settings) IDs() []string {
	ids := make([]string, len(s.Marketplaces))
	for i := range s.Marketplaces {
		ids[i] = s.Marketplaces[i].ID
	}
	return ids
}

// Clone deep-copies the selection.
func (s *Settings) Clone() Settings {
	if s.Marketplaces == nil {
		return Settings{}
	}
	out := Settings{Marketplaces: make([]Marketplace, len(s.Marketplaces))}
	for i := range s.Marketplaces {
		out.Marketplaces[i] = s.Marketplaces[i].Clone()
	}
	return out
}
