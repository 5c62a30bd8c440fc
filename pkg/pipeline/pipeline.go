// Package pipeline wires the statistics sources to normalization, reshaping,
// statistics, charts and export.
//
// Every entry point (stdio tools, HTTP tools, CLI commands) goes through a
// [Runner], so argument defaults, validation and error classification are
// the same everywhere.
//
// # Architecture
//
// A call runs through up to four stages:
//
//  1. Fetch: one upstream request, rate limited and retried
//  2. Normalize: the source format becomes a [table.Table]
//  3. Transform: optional filter, sort, time-series and pivot steps
//  4. Output: statistics, a chart or an export
//
// The pass-through operations (search, raw data) stop after stage 1.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, logger)
//	res, err := runner.ExportData(ctx, pipeline.ExportParams{
//	    Input: pipeline.Input{
//	        DataSource: "worldbank",
//	        DataParams: json.RawMessage(`{"countryCode":"JP","indicatorCode":"SP.POP.TOTL"}`),
//	    },
//	    Format: "csv",
//	})
//
// [table.Table]: github.com/matzehuels/statbridge/pkg/table.Table
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/statbridge/pkg/chart"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/stats"
	"github.com/matzehuels/statbridge/pkg/transform"
)

// =============================================================================
// Operation Names
// =============================================================================

// Operation names, shared with the tool registry and observability hooks.
const (
	OpSearchStatistics    = "search-statistics"
	OpGetStatisticsData   = "get-statistics-data"
	OpGetIndicatorData    = "get-indicator-data"
	OpSearchIndicators    = "search-indicators"
	OpGetSDMXData         = "get-sdmx-data"
	OpGetJSONStatData     = "get-jsonstat-data"
	OpExportData          = "export-data"
	OpCalculateStatistics = "calculate-statistics"
	OpGenerateChart       = "generate-chart"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSearchLimit is the page size of search-statistics.
	DefaultSearchLimit = estat.DefaultSearchLimit

	// DefaultDataLimit is the page size of get-statistics-data.
	DefaultDataLimit = estat.DefaultDataLimit

	// FetchLimit is the e-Stat page size when a table feeds export,
	// statistics or a chart.
	FetchLimit = 10000

	// DefaultValueColumn is the column statistics are computed over.
	DefaultValueColumn = "value"

	MaxSearchLimit = 1000
	MaxDataLimit   = 10000

	MinChartSize = 200
	MaxChartSize = 4000
)

// Chart types.
const (
	ChartLine = "line"
	ChartBar  = "bar"
	ChartPie  = "pie"
)

// ChartTypes lists the supported chart types.
var ChartTypes = []string{ChartLine, ChartBar, ChartPie}

// =============================================================================
// Source Parameters
// =============================================================================

// SearchStatisticsParams are the arguments of search-statistics.
type SearchStatisticsParams struct {
	SearchWord string `json:"searchWord,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// ValidateAndSetDefaults applies the default page size and checks bounds.
func (p *SearchStatisticsParams) ValidateAndSetDefaults() error {
	if p.Limit == 0 {
		p.Limit = DefaultSearchLimit
	}
	return errors.ValidateRange("limit", p.Limit, 1, MaxSearchLimit)
}

// StatisticsDataParams are the arguments of get-statistics-data, and the
// dataParams of the e-Stat source.
type StatisticsDataParams struct {
	StatsDataID   string `json:"statsDataId"`
	Limit         int    `json:"limit,omitempty"`
	StartPosition int    `json:"startPosition,omitempty"`
}

// ValidateAndSetDefaults applies the default page size and checks the table
// id and bounds.
func (p *StatisticsDataParams) ValidateAndSetDefaults() error {
	if err := errors.ValidateIdentifier("statsDataId", p.StatsDataID); err != nil {
		return err
	}
	if p.Limit == 0 {
		p.Limit = DefaultDataLimit
	}
	if err := errors.ValidateRange("limit", p.Limit, 1, MaxDataLimit); err != nil {
		return err
	}
	if p.StartPosition < 0 {
		return errors.Invalid("startPosition", "startPosition must not be negative")
	}
	return nil
}

// IndicatorDataParams are the arguments of get-indicator-data, and the
// dataParams of the World Bank source.
type IndicatorDataParams struct {
	CountryCode   string `json:"countryCode"`
	IndicatorCode string `json:"indicatorCode"`
	StartYear     int    `json:"startYear,omitempty"`
	EndYear       int    `json:"endYear,omitempty"`
}

// ValidateAndSetDefaults checks the country list, indicator and years.
func (p *IndicatorDataParams) ValidateAndSetDefaults() error {
	if err := errors.ValidateCountryCode("countryCode", p.CountryCode); err != nil {
		return err
	}
	if err := errors.ValidateIdentifier("indicatorCode", p.IndicatorCode); err != nil {
		return err
	}
	return errors.ValidateYearRange("startYear", p.StartYear, "endYear", p.EndYear)
}

// SearchIndicatorsParams are the arguments of search-indicators.
type SearchIndicatorsParams struct {
	Search string `json:"search,omitempty"`
}

// ValidateAndSetDefaults accepts every search string.
func (p *SearchIndicatorsParams) ValidateAndSetDefaults() error { return nil }

// SDMXParams are the arguments of get-sdmx-data, and the dataParams of the
// OECD source.
type SDMXParams struct {
	DatasetID   string `json:"datasetId"`
	Filter      string `json:"filter,omitempty"`
	StartPeriod string `json:"startPeriod,omitempty"`
	EndPeriod   string `json:"endPeriod,omitempty"`
}

// ValidateAndSetDefaults checks the dataset id.
func (p *SDMXParams) ValidateAndSetDefaults() error {
	return errors.ValidateIdentifier("datasetId", p.DatasetID)
}

// StringList decodes either a JSON string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	*l = many
	return nil
}

// JSONStatParams are the arguments of get-jsonstat-data, and the dataParams
// of the Eurostat source.
type JSONStatParams struct {
	DatasetCode string                `json:"datasetCode"`
	Filters     map[string]StringList `json:"filters,omitempty"`
	Lang        string                `json:"lang,omitempty"`
}

// ValidateAndSetDefaults checks the dataset code and language.
func (p *JSONStatParams) ValidateAndSetDefaults() error {
	if err := errors.ValidateIdentifier("datasetCode", p.DatasetCode); err != nil {
		return err
	}
	if p.Lang == "" {
		p.Lang = eurostat.DefaultLang
	}
	p.Lang = strings.ToUpper(p.Lang)
	return errors.ValidateOneOf("lang", p.Lang, eurostat.Languages)
}

func (p *JSONStatParams) filters() map[string][]string {
	if len(p.Filters) == 0 {
		return nil
	}
	out := make(map[string][]string, len(p.Filters))
	for k, v := range p.Filters {
		out[k] = v
	}
	return out
}

// =============================================================================
// Derived Operation Parameters
// =============================================================================

// Input selects a source and its query for the derived operations.
type Input struct {
	DataSource string             `json:"dataSource"`
	DataParams json.RawMessage    `json:"dataParams"`
	Transform  *transform.Options `json:"transform,omitempty"`
}

func (in *Input) validate() (string, error) {
	if err := errors.ValidateRequired("dataSource", in.DataSource); err != nil {
		return "", err
	}
	id, ok := integrations.ResolveSource(in.DataSource)
	if !ok {
		return "", errors.Invalid("dataSource", "dataSource must be one of: %s",
			strings.Join(integrations.Sources, ", "))
	}
	if len(in.DataParams) == 0 {
		return "", errors.Invalid("dataParams", "dataParams is required")
	}
	return id, nil
}

// ExportParams are the arguments of export-data.
type ExportParams struct {
	Input
	Format string `json:"format"`
}

// ValidateAndSetDefaults checks the source and format. The format defaults
// to JSON.
func (p *ExportParams) ValidateAndSetDefaults() error {
	if _, err := p.validate(); err != nil {
		return err
	}
	if p.Format == "" {
		p.Format = string(export.FormatJSON)
	}
	if _, err := export.ParseFormat(p.Format); err != nil {
		names := make([]string, len(export.Formats))
		for i, f := range export.Formats {
			names[i] = string(f)
		}
		return errors.Invalid("format", "format must be one of: %s", strings.Join(names, ", "))
	}
	return nil
}

// StatisticsParams are the arguments of calculate-statistics.
type StatisticsParams struct {
	Input
	Statistics  []string `json:"statistics"`
	GroupBy     string   `json:"groupBy,omitempty"`
	ValueColumn string   `json:"valueColumn,omitempty"`
}

// ValidateAndSetDefaults checks the source and statistic names. The value
// column defaults to "value".
func (p *StatisticsParams) ValidateAndSetDefaults() error {
	if _, err := p.validate(); err != nil {
		return err
	}
	if _, err := p.kinds(); err != nil {
		return err
	}
	if p.ValueColumn == "" {
		p.ValueColumn = DefaultValueColumn
	}
	return nil
}

func (p *StatisticsParams) kinds() ([]stats.Kind, error) {
	if len(p.Statistics) == 0 {
		return nil, errors.Invalid("statistics", "statistics must name at least one statistic")
	}
	out := make([]stats.Kind, 0, len(p.Statistics))
	for _, s := range p.Statistics {
		k, ok := stats.ParseKind(s)
		if !ok {
			names := make([]string, len(stats.Kinds))
			for i, k := range stats.Kinds {
				names[i] = string(k)
			}
			return nil, errors.Invalid("statistics", "unknown statistic %q (expected one of: %s)", s, strings.Join(names, ", "))
		}
		out = append(out, k)
	}
	return out, nil
}

// ChartParams are the arguments of generate-chart. The column fields
// override the per-source defaults.
type ChartParams struct {
	Input
	ChartType string `json:"chartType"`
	Title     string `json:"title,omitempty"`
	XLabel    string `json:"xLabel,omitempty"`
	YLabel    string `json:"yLabel,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`

	ShowLegend  *bool `json:"showLegend,omitempty"`
	Attribution *bool `json:"attribution,omitempty"`

	LabelColumn  string `json:"labelColumn,omitempty"`
	SeriesColumn string `json:"seriesColumn,omitempty"`
	ValueColumn  string `json:"valueColumn,omitempty"`
}

// ValidateAndSetDefaults checks the chart type and canvas size, applying
// the default 800x400.
func (p *ChartParams) ValidateAndSetDefaults() error {
	if _, err := p.validate(); err != nil {
		return err
	}
	p.ChartType = strings.ToLower(p.ChartType)
	if err := errors.ValidateOneOf("chartType", p.ChartType, ChartTypes); err != nil {
		return err
	}
	if p.Width == 0 {
		p.Width = chart.DefaultWidth
	}
	if p.Height == 0 {
		p.Height = chart.DefaultHeight
	}
	if err := errors.ValidateRange("width", p.Width, MinChartSize, MaxChartSize); err != nil {
		return err
	}
	return errors.ValidateRange("height", p.Height, MinChartSize, MaxChartSize)
}

// =============================================================================
// Results
// =============================================================================

// StatisticsReport is the result of calculate-statistics. Exactly one of
// Result and Groups is set.
type StatisticsReport struct {
	Source      string        `json:"source"`
	ValueColumn string        `json:"valueColumn"`
	GroupBy     string        `json:"groupBy,omitempty"`
	Result      *stats.Result `json:"result,omitempty"`
	Groups      []stats.Group `json:"groups,omitempty"`
}

// ChartResult is the result of generate-chart.
type ChartResult struct {
	ChartType string `json:"chartType"`
	Source    string `json:"source"`
	Series    int    `json:"series"`
	SVG       string `json:"svg"`
	DataURI   string `json:"dataUri"`
}

// SourceInfo describes one upstream.
type SourceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	License     string `json:"license"`
	BaseURL     string `json:"baseUrl"`
	Enabled     bool   `json:"enabled"`
}
