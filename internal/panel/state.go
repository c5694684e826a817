// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"github.com/tomtom215/marketpanel/internal/models"
)

// Region is the visible part of a page.
type Region int

const (
	// RegionHidden is the initial state, before any flow has run.
	RegionHidden Region = iota
	RegionLoading
	RegionContent
	RegionError
)

// String returns the region name used by templates.
func (r Region) String() string {
	switch r {
	case RegionHidden:
		return "hidden"
	case RegionLoading:
		return "loading"
	case RegionContent:
		return "content"
	case RegionError:
		return "error"
	default:
		return "unknown"
	}
}

// Save button labels.
const (
	SaveLabel   = "Save"
	SavingLabel = "Saving..."
)

// SaveButton is the state of the save control.
type SaveButton struct {
	Enabled bool
	Label   string
}

// UIState is everything a page renders.
type UIState struct {
	Region     Region
	SaveButton SaveButton

	// Selections is the marketplace list. On the chart page it holds the
	// selected marketplaces only and is read-only.
	Selections []models.MarketplaceSelection
	ReadOnly   bool

	Chart *models.Chart

	// InstallationID is the installation the save action is bound to.
	// Bound is false until a context change has loaded successfully.
	InstallationID string
	Bound          bool

	ErrorMessage string
}

func newUIState() UIState {
	return UIState{
		Region:     RegionHidden,
		SaveButton: SaveButton{Enabled: false, Label: SaveLabel},
	}
}

// Clone returns a deep copy.
func (s UIState) Clone() UIState {
	out := s
	if s.Selections != nil {
		out.Selections = make([]models.MarketplaceSelection, len(s.Selections))
		for i := range s.Selections {
			out.Selections[i] = models.MarketplaceSelection{
				Marketplace: s.Selections[i].Marketplace.Clone(),
				Checked:     s.Selections[i].Checked,
			}
		}
	}
	out.Chart = s.Chart.Clone()
	return out
}

// CheckedIDs returns the ids of the checked selections, in order.
func (s *UIState) CheckedIDs() []string {
	ids := make([]string, 0, len(s.Selections))
	for i := range s.Selections {
		if s.Selections[i].Checked {
			ids = append(ids, s.Selections[i].ID)
		}
	}
	return ids
}
