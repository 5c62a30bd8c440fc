package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
	"github.com/matzehuels/statbridge/pkg/pipeline"
)

// Handler runs one tool over raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one callable operation.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Handler     Handler         `json:"-"`
}

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry registers the nine pipeline tools backed by r.
func NewRegistry(r *pipeline.Runner) *Registry {
	reg := &Registry{tools: map[string]Tool{}}
	for _, t := range definitions(r) {
		reg.Register(t)
	}
	return reg
}

// Register adds t, replacing any tool of the same name.
func (reg *Registry) Register(t Tool) {
	if _, ok := reg.tools[t.Name]; !ok {
		reg.order = append(reg.order, t.Name)
	}
	reg.tools[t.Name] = t
}

// List returns the tools in registration order.
func (reg *Registry) List() []Tool {
	out := make([]Tool, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.tools[name])
	}
	return out
}

// Names returns the tool names, sorted.
func (reg *Registry) Names() []string {
	names := append([]string(nil), reg.order...)
	sort.Strings(names)
	return names
}

// Get returns the named tool.
func (reg *Registry) Get(name string) (Tool, bool) {
	t, ok := reg.tools[name]
	return t, ok
}

// Call runs the named tool. An unknown name is an ErrCodeUnknownTool error;
// malformed arguments are validation errors.
func (reg *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := reg.tools[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownTool, "unknown tool: %s", name)
	}
	return t.Handler(ctx, args)
}

// decode strictly unmarshals args into v. Missing or null arguments decode
// as an empty object.
func decode(args json.RawMessage, v any) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Invalid("arguments", "invalid arguments: %v", err)
	}
	return nil
}

// handle adapts a typed runner method to a Handler.
func handle[P any, R any](fn func(context.Context, P) (R, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var p P
		if err := decode(args, &p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}

// TableList is the result of search-statistics.
type TableList struct {
	Count  int               `json:"count"`
	Tables []estat.TableInfo `json:"tables"`
}

// IndicatorData is the result of get-indicator-data.
type IndicatorData struct {
	Count int               `json:"count"`
	Data  []worldbank.Point `json:"data"`
}

// IndicatorList is the result of search-indicators.
type IndicatorList struct {
	Count      int                       `json:"count"`
	Indicators []worldbank.IndicatorInfo `json:"indicators"`
}

func definitions(r *pipeline.Runner) []Tool {
	return []Tool{
		{
			Name:        pipeline.OpSearchStatistics,
			Description: "Search e-Stat (Japanese government statistics) for statistics tables by keyword.",
			InputSchema: searchStatisticsSchema,
			Handler: handle(func(ctx context.Context, p pipeline.SearchStatisticsParams) (*TableList, error) {
				tables, err := r.SearchStatistics(ctx, p)
				if err != nil {
					return nil, err
				}
				return &TableList{Count: len(tables), Tables: tables}, nil
			}),
		},
		{
			Name:        pipeline.OpGetStatisticsData,
			Description: "Fetch the classifications and observations of one e-Stat statistics table.",
			InputSchema: getStatisticsDataSchema,
			Handler:     handle(r.GetStatisticsData),
		},
		{
			Name:        pipeline.OpGetIndicatorData,
			Description: "Fetch World Bank indicator values for one or more countries.",
			InputSchema: getIndicatorDataSchema,
			Handler: handle(func(ctx context.Context, p pipeline.IndicatorDataParams) (*IndicatorData, error) {
				points, err := r.GetIndicatorData(ctx, p)
				if err != nil {
					return nil, err
				}
				return &IndicatorData{Count: len(points), Data: points}, nil
			}),
		},
		{
			Name:        pipeline.OpSearchIndicators,
			Description: "Search the World Bank indicator catalogue by name or id.",
			InputSchema: searchIndicatorsSchema,
			Handler: handle(func(ctx context.Context, p pipeline.SearchIndicatorsParams) (*IndicatorList, error) {
				infos, err := r.SearchIndicators(ctx, p)
				if err != nil {
					return nil, err
				}
				return &IndicatorList{Count: len(infos), Indicators: infos}, nil
			}),
		},
		{
			Name:        pipeline.OpGetSDMXData,
			Description: "Fetch an OECD dataset as raw SDMX-JSON.",
			InputSchema: getSDMXDataSchema,
			Handler:     handle(r.GetSDMXData),
		},
		{
			Name:        pipeline.OpGetJSONStatData,
			Description: "Fetch a Eurostat dataset as a raw JSON-stat 2.0 document.",
			InputSchema: getJSONStatDataSchema,
			Handler:     handle(r.GetJSONStatData),
		},
		{
			Name:        pipeline.OpExportData,
			Description: "Fetch data from any source, optionally reshape it, and serialize it as CSV or JSON.",
			InputSchema: exportDataSchema,
			Handler:     handle(r.ExportData),
		},
		{
			Name:        pipeline.OpCalculateStatistics,
			Description: "Compute descriptive statistics over a value column, optionally per group.",
			InputSchema: calculateStatisticsSchema,
			Handler:     handle(r.CalculateStatistics),
		},
		{
			Name:        pipeline.OpGenerateChart,
			Description: "Render data from any source as an SVG line, bar or pie chart.",
			InputSchema: generateChartSchema,
			Handler:     handle(r.GenerateChart),
		},
	}
}
