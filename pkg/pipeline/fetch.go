package pipeline

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/normalize"
	"github.com/matzehuels/statbridge/pkg/table"
)

// Fetch runs the source query described by params and normalizes the
// response into a table. The params shape depends on the source:
//
//   - estat: [StatisticsDataParams]; the page size defaults to [FetchLimit]
//   - worldbank: [IndicatorDataParams]
//   - oecd: [SDMXParams]
//   - eurostat: [JSONStatParams]
func (r *Runner) Fetch(ctx context.Context, source string, params json.RawMessage) (*table.Table, error) {
	id, ok := integrations.ResolveSource(source)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSource, "unknown data source %q", source)
	}

	switch id {
	case integrations.SourceEStat:
		var p StatisticsDataParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Limit == 0 {
			p.Limit = FetchLimit
		}
		if err := p.ValidateAndSetDefaults(); err != nil {
			return nil, err
		}
		data, err := r.statsData(ctx, p)
		if err != nil {
			return nil, err
		}
		return normalize.StatsData(data), nil

	case integrations.SourceWorldBank:
		var p IndicatorDataParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.ValidateAndSetDefaults(); err != nil {
			return nil, err
		}
		points, err := r.indicator(ctx, p)
		if err != nil {
			return nil, err
		}
		return normalize.Indicators(points), nil

	case integrations.SourceOECD:
		var p SDMXParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.ValidateAndSetDefaults(); err != nil {
			return nil, err
		}
		msg, err := r.sdmx(ctx, p)
		if err != nil {
			return nil, err
		}
		return normalize.SDMX(msg), nil

	case integrations.SourceEurostat:
		var p JSONStatParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.ValidateAndSetDefaults(); err != nil {
			return nil, err
		}
		ds, err := r.jsonStat(ctx, p)
		if err != nil {
			return nil, err
		}
		return normalize.JSONStat(ds), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidSource, "unsupported data source %q", id)
}

// decodeParams strictly decodes raw into v. Unknown fields are rejected so
// a misspelled parameter is not silently ignored.
func decodeParams(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.Invalid("dataParams", "dataParams is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Invalid("dataParams", "invalid dataParams: %v", err)
	}
	return nil
}

// ref returns the indicator or table id a source query names, for chart
// attribution.
func ref(source string, params json.RawMessage) string {
	var p struct {
		IndicatorCode string `json:"indicatorCode"`
		StatsDataID   string `json:"statsDataId"`
		DatasetID     string `json:"datasetId"`
		DatasetCode   string `json:"datasetCode"`
	}
	if json.Unmarshal(params, &p) != nil {
		return ""
	}
	switch source {
	case integrations.SourceWorldBank:
		return p.IndicatorCode
	case integrations.SourceEStat:
		return p.StatsDataID
	case integrations.SourceOECD:
		return p.DatasetID
	case integrations.SourceEurostat:
		return p.DatasetCode
	}
	return ""
}
