// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package reconcile aligns the marketplace universe with an installation's
// selected subset, in both directions: universe plus selection to switch
// view-models for display, and switch states back to the selection for saving.
//
// All functions are pure. They never modify their inputs.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/tomtom215/marketpanel/internal/models"
)

// ErrUnknownMarketplace is returned when a checked switch names a marketplace
// that is not part of the universe. Saving such a selection would persist an
// entry the platform does not know about.
var ErrUnknownMarketplace = errors.New("unknown marketplace")

// ProcessMarketplaces annotates every marketplace of all with whether an entry
// of selected has the same id. The result has the order and length of all.
func ProcessMarketplaces(all, selected []models.Marketplace) []models.MarketplaceSelection {
	out := make([]models.MarketplaceSelection, len(all))
	for i := range all {
		out[i] = models.MarketplaceSelection{
			Marketplace: all[i].Clone(),
			Checked:     containsID(selected, all[i].ID),
		}
	}
	return out
}

// ProcessSelectedMarketplaces resolves each checkbox value to the marketplace
// of all with that id. The result follows checkbox order. A value missing from
// all fails the whole call with ErrUnknownMarketplace.
func ProcessSelectedMarketplaces(all []models.Marketplace, checked []models.Checkbox) ([]models.Marketplace, error) {
	out := make([]models.Marketplace, 0, len(checked))
	for _, cb := range checked {
		m, ok := findByID(all, cb.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMarketplace, cb.Value)
		}
		out = append(out, m.Clone())
	}
	return out, nil
}

// ProcessCheckboxes keeps the checked inputs, preserving order.
func ProcessCheckboxes(inputs []models.Checkbox) []models.Checkbox {
	out := make([]models.Checkbox, 0, len(inputs))
	for _, cb := range inputs {
		if cb.Checked {
			out = append(out, cb)
		}
	}
	return out
}

func containsID(list []models.Marketplace, id string) bool {
	_, ok := findByID(list, id)
	return ok
}

// findByID is a linear scan; marketplace lists are small.
func findByID(list []models.Marketplace, id string) (models.Marketplace, bool) {
	for i := range list {
		if list[i].ID == id {
			return list[i], true
		}
	}
	return models.Marketplace{}, false
}
