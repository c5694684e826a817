// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/panel"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageView is the data every page template renders.
type pageView struct {
	Title    string
	Page     string // bar, line, settings or login
	Region   string
	State    panel.UIState
	List     listView
	ChartSVG template.HTML
	Flash    []Flash
	Next     string // sign-in redirect target
}

type listView struct {
	Items    []models.MarketplaceSelection
	ReadOnly bool
}

func newPageView(title, page string, state panel.UIState, flash []Flash) pageView {
	items := make([]models.MarketplaceSelection, len(state.Selections))
	for i := range state.Selections {
		items[i] = state.Selections[i]
		items[i].Marketplace = items[i].WithDefaults()
	}
	return pageView{
		Title:  title,
		Page:   page,
		Region: state.Region.String(),
		State:  state,
		List:   listView{Items: items, ReadOnly: state.ReadOnly},
		Flash:  flash,
	}
}

// parsePages parses each page together with the shared layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{"chart", "settings", "login"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}
