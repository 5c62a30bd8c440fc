package chart

import (
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/table"
)

// SeriesFromTable groups rows into series keyed by seriesCol, in first-seen
// order. Each row contributes a point labeled by labelCol. Rows whose value
// is not numeric are skipped, as is a repeated label within one series.
// An empty seriesCol yields a single series named after valueCol.
func SeriesFromTable(t *table.Table, labelCol, seriesCol, valueCol string) []Series {
	var (
		out   []Series
		index = map[string]int{}
		seen  = map[string]map[string]bool{}
	)
	for _, r := range t.Rows {
		v, ok := r.Get(valueCol).Numeric()
		if !ok {
			continue
		}
		name := valueCol
		if seriesCol != "" {
			name = r.Get(seriesCol).String()
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			seen[name] = map[string]bool{}
			out = append(out, Series{Name: name})
		}
		label := r.Get(labelCol).String()
		if seen[name][label] {
			continue
		}
		seen[name][label] = true
		out[i].Points = append(out[i].Points, Point{Label: label, Value: v})
	}
	return out
}

// PieFromSeries reduces each series to its latest point, the last one in
// [Labels] order, and labels the slice with the series name.
func PieFromSeries(series []Series) []Point {
	var out []Point
	for _, s := range series {
		labels := Labels([]Series{s})
		if len(labels) == 0 {
			continue
		}
		latest, _ := s.Lookup(labels[len(labels)-1])
		out = append(out, Point{Label: s.Name, Value: latest.Value, Color: s.Color})
	}
	return out
}

// AttributionFor returns the credit block for a source id. ref names the
// indicator or table the chart shows and may be empty.
func AttributionFor(source, ref string) *Attribution {
	var a Attribution
	switch source {
	case integrations.SourceWorldBank:
		a = Attribution{Source: "World Bank", URL: "https://data.worldbank.org", License: "CC BY 4.0"}
		if ref != "" {
			a.Note = "Indicator: " + ref
		}
	case integrations.SourceEStat:
		a = Attribution{Source: "e-Stat (Portal Site of Official Statistics of Japan)", URL: "https://www.e-stat.go.jp", License: "政府標準利用規約（第2.0版）準拠"}
		if ref != "" {
			a.Note = "統計表ID: " + ref
		}
	case integrations.SourceOECD:
		a = Attribution{Source: "OECD", URL: "https://data.oecd.org", License: "OECD Terms and Conditions"}
		if ref != "" {
			a.Note = "Dataset: " + ref
		}
	case integrations.SourceEurostat:
		a = Attribution{Source: "Eurostat", URL: "https://ec.europa.eu/eurostat", License: "EU Open Data License"}
		if ref != "" {
			a.Note = "Dataset: " + ref
		}
	default:
		return nil
	}
	return &a
}
