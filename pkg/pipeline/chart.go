package pipeline

import (
	"github.com/matzehuels/statbridge/pkg/chart"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/normalize"
	"github.com/matzehuels/statbridge/pkg/table"
)

// Candidate label (x axis) and series columns, in preference order. They
// cover the column names produced by every normalizer.
var (
	labelColumns  = []string{normalize.ColYear, "time_label", "time", "TIME_PERIOD", "TIME"}
	seriesColumns = []string{normalize.ColCountryName, "cat01_label", "geo", "REF_AREA", "area_label"}
)

func firstColumn(t *table.Table, candidates []string) string {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return c
		}
	}
	return ""
}

// renderChart builds the series of t and renders them as p.ChartType.
func renderChart(source string, t *table.Table, p ChartParams) (*ChartResult, error) {
	labelCol := p.LabelColumn
	if labelCol == "" {
		labelCol = firstColumn(t, labelColumns)
	}
	if labelCol == "" {
		labelCol = normalize.ColIndex
	}
	seriesCol := p.SeriesColumn
	if seriesCol == "" {
		seriesCol = firstColumn(t, seriesColumns)
	}
	valueCol := p.ValueColumn
	if valueCol == "" {
		valueCol = DefaultValueColumn
	}
	for _, c := range []struct{ field, col string }{
		{"labelColumn", p.LabelColumn},
		{"seriesColumn", p.SeriesColumn},
		{"valueColumn", valueCol},
	} {
		if c.col != "" && t.Len() > 0 && !t.HasColumn(c.col) {
			return nil, errors.Invalid(c.field, "column %q not found (available: %v)", c.col, t.Columns)
		}
	}

	series := chart.SeriesFromTable(t, labelCol, seriesCol, valueCol)
	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no numeric %q values to chart", valueCol)
	}

	cfg := chart.Config{
		Title:  p.Title,
		XLabel: p.XLabel,
		YLabel: p.YLabel,
		Width:  p.Width,
		Height: p.Height,
	}
	if p.ShowLegend != nil {
		cfg.HideLegend = !*p.ShowLegend
	}
	if p.Attribution == nil || *p.Attribution {
		cfg.Attribution = chart.AttributionFor(source, ref(source, p.DataParams))
	}

	var svg []byte
	switch p.ChartType {
	case ChartLine:
		svg = chart.Line(series, cfg)
	case ChartBar:
		svg = chart.Bar(series, cfg)
	case ChartPie:
		points := chart.PieFromSeries(series)
		if len(chart.Slices(points)) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "pie chart needs at least one positive value")
		}
		svg = chart.Pie(points, cfg)
	}
	return &ChartResult{
		ChartType: p.ChartType,
		Source:    source,
		Series:    len(series),
		SVG:       string(svg),
		DataURI:   chart.DataURI(svg),
	}, nil
}
