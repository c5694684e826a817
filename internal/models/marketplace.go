// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// DefaultMarketplaceIcon is used when the platform does not report an icon.
const DefaultMarketplaceIcon = "https://unpkg.com/@cloudblueconnect/material-svg@latest/icons/google/language/baseline.svg"

// Marketplace is a selectable entity identified by a stable id. Fields other
// than the known ones are kept in Extra and written back untouched, so a
// marketplace round-trips through the panel without losing data.
type Marketplace struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"max=256"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var marketplaceKnownFields = []string{"id", "name", "description", "icon"}

// MarshalJSON merges the known fields over Extra.
//
//nolint:gocritic // value receiver so both Marketplace and *Marketplace marshal the same way
func (m Marketplace) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+len(marketplaceKnownFields))
	for k, v := range m.Extra {
		out[k] = v
	}

	fields := map[string]string{"id": m.ID, "name": m.Name}
	if m.Description != "" {
		fields["description"] = m.Description
	}
	if m.Icon != "" {
		fields["icon"] = m.Icon
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal marketplace %s: %w", k, err)
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the object into known fields and Extra.
func (m *Marketplace) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode marketplace: %w", err)
	}

	decoded := Marketplace{}
	targets := map[string]*string{
		"id":          &decoded.ID,
		"name":        &decoded.Name,
		"description": &decoded.Description,
		"icon":        &decoded.Icon,
	}
	for key, value := range raw {
		target, known := targets[key]
		if !known {
			if decoded.Extra == nil {
				decoded.Extra = make(map[string]json.RawMessage)
			}
			decoded.Extra[key] = value
			continue
		}
		if string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return fmt.Errorf("decode marketplace field %q: %w", key, err)
		}
	}

	*m = decoded
	return nil
}

// Clone returns a copy whose Extra map can be modified independently.
//
//nolint:gocritic // value receiver keeps call sites simple
func (m Marketplace) Clone() Marketplace {
	if m.Extra != nil {
		extra := make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			extra[k] = v
		}
		m.Extra = extra
	}
	return m
}

// WithDefaults fills in the icon when missing.
//
//nolint:gocritic // value receiver keeps call sites simple
func (m Marketplace) WithDefaults() Marketplace {
	if m.Icon == "" {
		m.Icon = DefaultMarketplaceIcon
	}
	return m
}

// MarketplaceSelection is a marketplace annotated with whether it is part of
// the installation's selected set. It is derived on every page view and is
// never persisted.
type MarketplaceSelection struct {
	Marketplace
	Checked bool
}

// MarshalJSON emits the marketplace object with an added "checked" field.
//
//nolint:gocritic // value receiver so slices of selections marshal directly
func (s MarketplaceSelection) MarshalJSON() ([]byte, error) {
	m := s.Marketplace.Clone()
	if m.Extra == nil {
		m.Extra = make(map[string]json.RawMessage, 1)
	}
	m.Extra["checked"] = json.RawMessage(fmt.Sprintf("%t", s.Checked))
	return m.MarshalJSON()
}

// Checkbox is the UI-side control state for one marketplace switch.
type Checkbox struct {
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
}

// CheckboxesFromSelections maps the selections to their switch states, in order.
func CheckboxesFromSelections(selections []MarketplaceSelection) []Checkbox {
	out := make([]Checkbox, len(selections))
	for i, s := range selections {
		out[i] = Checkbox{Value: s.ID, Checked: s.Checked}
	}
	return out
}
