// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package models

// SubscriptionsDatasetLabel labels the active-subscription series of /api/chart.
const SubscriptionsDatasetLabel = "Subscriptions"

// Chart is the payload served by /api/chart.
type Chart struct {
	Type string    `json:"type"`
	Data ChartData `json:"data"`
}

// ChartData is a labelled multi-series dataset.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one named series aligned with ChartData.Labels.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// NewSubscriptionChart builds the single-series subscriptions chart. labels and
// counts must be the same length.
func NewSubscriptionChart(chartType string, labels []string, counts []float64) *Chart {
	if labels == nil {
		labels = []string{}
	}
	if counts == nil {
		counts = []float64{}
	}
	return &Chart{
		Type: chartType,
		Data: ChartData{
			Labels:   labels,
			Datasets: []Dataset{{Label: SubscriptionsDatasetLabel, Data: counts}},
		},
	}
}

// Clone deep-copies the chart.
func (c *Chart) Clone() *Chart {
	if c == nil {
		return nil
	}
	out := &Chart{Type: c.Type, Data: ChartData{Labels: append([]string(nil), c.Data.Labels...)}}
	for _, ds := range c.Data.Datasets {
		out.Data.Datasets = append(out.Data.Datasets, Dataset{Label: ds.Label, Data: append([]float64(nil), ds.Data...)})
	}
	return out
}
