// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tomtom215/marketpanel/internal/models"
)

const (
	chartWidth  = 720
	chartHeight = 360
)

var seriesColors = []drawing.Color{
	drawing.ColorFromHex("1976d2"),
	drawing.ColorFromHex("ef6c00"),
	drawing.ColorFromHex("388e3c"),
	drawing.ColorFromHex("7b1fa2"),
}

// RenderChartSVG draws c as an inline SVG document. Bar charts use the first
// dataset; line charts draw every dataset. A chart with no labels renders
// to the empty string. The SVG renderer writes text verbatim, so labels are
// escaped here.
func RenderChartSVG(c *models.Chart) (template.HTML, error) {
	if c == nil || len(c.Data.Labels) == 0 || len(c.Data.Datasets) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	var err error
	switch c.Type {
	case "line":
		err = lineChart(c).Render(chart.SVG, &buf)
	default:
		err = barChart(c).Render(chart.SVG, &buf)
	}
	if err != nil {
		return "", fmt.Errorf("render %s chart: %w", c.Type, err)
	}
	//nolint:gosec // every label passed to go-chart is escaped first
	return template.HTML(buf.String()), nil
}

func barChart(c *models.Chart) chart.BarChart {
	ds := c.Data.Datasets[0]
	bars := make([]chart.Value, len(c.Data.Labels))
	for i, label := range c.Data.Labels {
		bars[i] = chart.Value{
			Label: html.EscapeString(label),
			Value: valueAt(ds.Data, i),
			Style: chart.Style{FillColor: seriesColors[0], StrokeColor: seriesColors[0]},
		}
	}

	return chart.BarChart{
		Title:    html.EscapeString(ds.Label),
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth(len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax(c.Data.Datasets[:1])},
		},
		Bars: bars,
	}
}

func lineChart(c *models.Chart) chart.Chart {
	n := len(c.Data.Labels)
	xs := make([]float64, n)
	// Blank ticks half a step outside the data set the x range, so a single
	// point still has a non-empty range and sits off the axis edges.
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, label := range c.Data.Labels {
		xs[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: html.EscapeString(label)})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})

	series := make([]chart.Series, 0, len(c.Data.Datasets))
	for i, ds := range c.Data.Datasets {
		ys := make([]float64, n)
		for j := range ys {
			ys[j] = valueAt(ds.Data, j)
		}
		color := seriesColors[i%len(seriesColors)]
		series = append(series, chart.ContinuousSeries{
			Name:    html.EscapeString(ds.Label),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    4,
			},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax(c.Data.Datasets)},
		},
		Series: series,
	}
	if len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph
}

// yMax is the top of the value axis: the largest value plus headroom, and
// at least 1 so an all-zero chart still has a drawable range.
func yMax(datasets []models.Dataset) float64 {
	top := 0.0
	for _, ds := range datasets {
		for _, v := range ds.Data {
			if v > top {
				top = v
			}
		}
	}
	if top < 1 {
		return 1
	}
	return top * 1.1
}

func barWidth(n int) int {
	w := (chartWidth - 80) / (2 * n)
	switch {
	case w > 60:
		return 60
	case w < 4:
		return 4
	default:
		return w
	}
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
