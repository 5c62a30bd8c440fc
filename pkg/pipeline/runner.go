package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statbridge/pkg/config"
	"github.com/matzehuels/statbridge/pkg/dump"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/integrations/oecd"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
	"github.com/matzehuels/statbridge/pkg/observability"
	"github.com/matzehuels/statbridge/pkg/stats"
	"github.com/matzehuels/statbridge/pkg/table"
	"github.com/matzehuels/statbridge/pkg/transform"
)

// Runner executes the tool operations against the configured sources.
//
// The Runner holds no per-call state. Its rate-limit registry is shared by
// all calls, so one Runner per process enforces the per-source budgets; it
// is safe for concurrent use.
type Runner struct {
	Config *config.Config
	Logger *log.Logger

	hooks  observability.Hooks
	sink   dump.Sink
	limits *httputil.RateLimits
	http   *http.Client

	estat     *estat.Client
	worldbank *worldbank.Client
	oecd      *oecd.Client
	eurostat  *eurostat.Client
}

// Option configures a Runner.
type Option func(*Runner)

// WithHooks sets the observability hooks for tool calls and HTTP traffic.
func WithHooks(h observability.Hooks) Option {
	return func(r *Runner) {
		if h != nil {
			r.hooks = h
		}
	}
}

// WithDump writes every raw upstream body to s.
func WithDump(s dump.Sink) Option {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithRateLimits replaces the rate-limit registry built from the config.
func WithRateLimits(l *httputil.RateLimits) Option {
	return func(r *Runner) {
		if l != nil {
			r.limits = l
		}
	}
}

// WithHTTPClient replaces the HTTP client used by every source.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Runner) { r.http = hc }
}

// NewRunner creates a runner for cfg. A nil cfg uses [config.Default] and a
// nil logger uses log.Default().
func NewRunner(cfg *config.Config, logger *log.Logger, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Config: cfg,
		Logger: logger,
		hooks:  observability.Noop{},
		sink:   dump.Null{},
		limits: httputil.NewRateLimits(cfg.Limits()),
	}
	for _, opt := range opts {
		opt(r)
	}

	common := []integrations.Option{
		integrations.WithTimeout(cfg.Timeout),
		integrations.WithHooks(r.hooks),
	}
	if r.http != nil {
		common = append(common, integrations.WithHTTPClient(r.http))
	}
	r.estat = estat.NewClient(cfg.EStat.AppID, r.limits, cfg.Retry, common...).WithBaseURL(cfg.EStat.BaseURL)
	r.worldbank = worldbank.NewClient(r.limits, cfg.Retry, common...).WithBaseURL(cfg.WorldBank.BaseURL)
	r.oecd = oecd.NewClient(r.limits, cfg.Retry, common...).WithBaseURL(cfg.OECD.BaseURL)
	r.eurostat = eurostat.NewClient(r.limits, cfg.Retry, common...).WithBaseURL(cfg.Eurostat.BaseURL)
	return r
}

// Sources describes every upstream and whether it is enabled.
func (r *Runner) Sources() []SourceInfo {
	out := make([]SourceInfo, 0, len(integrations.Sources))
	for _, id := range integrations.Sources {
		info := sourceInfo[id]
		info.ID = id
		info.BaseURL = r.Config.Source(id).BaseURL
		info.Enabled = r.Config.Enabled(id)
		out = append(out, info)
	}
	return out
}

var sourceInfo = map[string]SourceInfo{
	integrations.SourceEStat: {
		Name:        "e-Stat",
		Description: "Portal Site of Official Statistics of Japan (government statistics tables)",
		License:     "政府標準利用規約（第2.0版）準拠",
	},
	integrations.SourceWorldBank: {
		Name:        "World Bank Open Data",
		Description: "World Development Indicators by country and year",
		License:     "CC BY 4.0",
	},
	integrations.SourceOECD: {
		Name:        "OECD Data Explorer",
		Description: "OECD statistics through the SDMX REST API",
		License:     "OECD Terms and Conditions",
	},
	integrations.SourceEurostat: {
		Name:        "Eurostat",
		Description: "European statistics through the JSON-stat dissemination API",
		License:     "EU Open Data License",
	},
}

// begin reports a tool start and returns the matching completion callback.
func (r *Runner) begin(ctx context.Context, op string) func(error) {
	r.hooks.OnToolStart(ctx, op)
	start := time.Now()
	return func(err error) {
		r.hooks.OnToolComplete(ctx, op, time.Since(start), err)
	}
}

// require fails when source id is switched off.
func (r *Runner) require(id string) error {
	if !r.Config.Enabled(id) {
		return errors.New(errors.ErrCodeUnsupported, "data source %s is disabled", id)
	}
	if id == integrations.SourceEStat && r.Config.EStat.AppID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "e-Stat application id is not configured (set ESTAT_APP_ID)")
	}
	return nil
}

// keep hands a raw body to the dump sink. Dump failures are logged, never
// returned.
func (r *Runner) keep(ctx context.Context, source, op string, params any, body []byte) {
	if len(body) == 0 {
		return
	}
	path, err := r.sink.Write(ctx, source, dump.Key(op, params), body)
	if err != nil {
		r.Logger.Warn("dump failed", "source", source, "err", err)
		return
	}
	if path != "" {
		r.Logger.Debug("dumped response", "source", source, "path", path, "bytes", len(body))
	}
}

// =============================================================================
// Pass-through Operations
// =============================================================================

// SearchStatistics lists e-Stat tables matching p.SearchWord.
func (r *Runner) SearchStatistics(ctx context.Context, p SearchStatisticsParams) (_ []estat.TableInfo, err error) {
	done := r.begin(ctx, OpSearchStatistics)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := r.require(integrations.SourceEStat); err != nil {
		return nil, err
	}
	tables, body, err := r.estat.SearchTables(ctx, estat.SearchParams{SearchWord: p.SearchWord, Limit: p.Limit})
	r.keep(ctx, integrations.SourceEStat, OpSearchStatistics, p, body)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("searched tables", "word", p.SearchWord, "tables", len(tables))
	return tables, nil
}

// GetStatisticsData fetches one page of an e-Stat table.
func (r *Runner) GetStatisticsData(ctx context.Context, p StatisticsDataParams) (_ *estat.StatsData, err error) {
	done := r.begin(ctx, OpGetStatisticsData)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return r.statsData(ctx, p)
}

func (r *Runner) statsData(ctx context.Context, p StatisticsDataParams) (*estat.StatsData, error) {
	if err := r.require(integrations.SourceEStat); err != nil {
		return nil, err
	}
	data, body, err := r.estat.StatsData(ctx, estat.DataParams{
		StatsDataID:   p.StatsDataID,
		Limit:         p.Limit,
		StartPosition: p.StartPosition,
	})
	r.keep(ctx, integrations.SourceEStat, OpGetStatisticsData, p, body)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("fetched table", "id", p.StatsDataID, "observations", len(data.Observations), "total", data.Total)
	return data, nil
}

// GetIndicatorData fetches World Bank observations.
func (r *Runner) GetIndicatorData(ctx context.Context, p IndicatorDataParams) (_ []worldbank.Point, err error) {
	done := r.begin(ctx, OpGetIndicatorData)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return r.indicator(ctx, p)
}

func (r *Runner) indicator(ctx context.Context, p IndicatorDataParams) ([]worldbank.Point, error) {
	if err := r.require(integrations.SourceWorldBank); err != nil {
		return nil, err
	}
	points, body, err := r.worldbank.Indicator(ctx, worldbank.IndicatorParams{
		CountryCode:   p.CountryCode,
		IndicatorCode: p.IndicatorCode,
		StartYear:     p.StartYear,
		EndYear:       p.EndYear,
	})
	r.keep(ctx, integrations.SourceWorldBank, OpGetIndicatorData, p, body)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("fetched indicator", "indicator", p.IndicatorCode, "points", len(points))
	return points, nil
}

// SearchIndicators filters the World Bank indicator catalogue.
func (r *Runner) SearchIndicators(ctx context.Context, p SearchIndicatorsParams) (_ []worldbank.IndicatorInfo, err error) {
	done := r.begin(ctx, OpSearchIndicators)
	defer func() { done(err) }()

	if err := r.require(integrations.SourceWorldBank); err != nil {
		return nil, err
	}
	infos, body, err := r.worldbank.SearchIndicators(ctx, p.Search)
	r.keep(ctx, integrations.SourceWorldBank, OpSearchIndicators, p, body)
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Countries lists the World Bank economies.
func (r *Runner) Countries(ctx context.Context) ([]worldbank.Country, error) {
	if err := r.require(integrations.SourceWorldBank); err != nil {
		return nil, err
	}
	countries, body, err := r.worldbank.Countries(ctx)
	r.keep(ctx, integrations.SourceWorldBank, "countries", nil, body)
	return countries, err
}

// GetSDMXData returns the raw SDMX-JSON message of an OECD query.
func (r *Runner) GetSDMXData(ctx context.Context, p SDMXParams) (_ json.RawMessage, err error) {
	done := r.begin(ctx, OpGetSDMXData)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	msg, err := r.sdmx(ctx, p)
	if err != nil {
		return nil, err
	}
	return msg.Raw, nil
}

func (r *Runner) sdmx(ctx context.Context, p SDMXParams) (*oecd.Message, error) {
	if err := r.require(integrations.SourceOECD); err != nil {
		return nil, err
	}
	msg, err := r.oecd.Data(ctx, oecd.DataParams{
		DatasetID:   p.DatasetID,
		Filter:      p.Filter,
		StartPeriod: p.StartPeriod,
		EndPeriod:   p.EndPeriod,
	})
	if err != nil {
		return nil, err
	}
	r.keep(ctx, integrations.SourceOECD, OpGetSDMXData, p, msg.Raw)
	return msg, nil
}

// GetJSONStatData returns the raw JSON-stat document of a Eurostat query.
func (r *Runner) GetJSONStatData(ctx context.Context, p JSONStatParams) (_ json.RawMessage, err error) {
	done := r.begin(ctx, OpGetJSONStatData)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ds, err := r.jsonStat(ctx, p)
	if err != nil {
		return nil, err
	}
	return ds.Raw, nil
}

func (r *Runner) jsonStat(ctx context.Context, p JSONStatParams) (*eurostat.Dataset, error) {
	if err := r.require(integrations.SourceEurostat); err != nil {
		return nil, err
	}
	ds, err := r.eurostat.Data(ctx, eurostat.DataParams{
		DatasetCode: p.DatasetCode,
		Filters:     p.filters(),
		Lang:        p.Lang,
	})
	if err != nil {
		return nil, err
	}
	r.keep(ctx, integrations.SourceEurostat, OpGetJSONStatData, p, ds.Raw)
	return ds, nil
}

// =============================================================================
// Derived Operations
// =============================================================================

// ExportData fetches, reshapes and serializes a table.
func (r *Runner) ExportData(ctx context.Context, p ExportParams) (_ *export.Result, err error) {
	done := r.begin(ctx, OpExportData)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	source, t, err := r.load(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	format, _ := export.ParseFormat(p.Format)
	res, err := export.Encode(t, format, source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	r.Logger.Info("exported data", "source", source, "format", format, "rows", t.Len())
	return &res, nil
}

// CalculateStatistics computes statistics over a value column, optionally
// per group.
func (r *Runner) CalculateStatistics(ctx context.Context, p StatisticsParams) (_ *StatisticsReport, err error) {
	done := r.begin(ctx, OpCalculateStatistics)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	kinds, _ := p.kinds()
	source, t, err := r.load(ctx, p.Input)
	if err != nil {
		return nil, err
	}

	rep := &StatisticsReport{Source: source, ValueColumn: p.ValueColumn, GroupBy: p.GroupBy}
	if p.GroupBy != "" {
		if !t.HasColumn(p.GroupBy) && t.Len() > 0 {
			return nil, errors.Invalid("groupBy", "column %q not found (available: %v)", p.GroupBy, t.Columns)
		}
		rep.Groups = stats.CalculateGrouped(t, p.GroupBy, p.ValueColumn, kinds)
		r.Logger.Info("calculated statistics", "source", source, "groups", len(rep.Groups))
		return rep, nil
	}
	res := stats.Calculate(t.Numbers(p.ValueColumn), kinds)
	rep.Result = &res
	r.Logger.Info("calculated statistics", "source", source, "count", res.Count)
	return rep, nil
}

// GenerateChart renders a table as a line, bar or pie chart.
func (r *Runner) GenerateChart(ctx context.Context, p ChartParams) (_ *ChartResult, err error) {
	done := r.begin(ctx, OpGenerateChart)
	defer func() { done(err) }()

	if err := p.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	source, t, err := r.load(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	res, err := renderChart(source, t, p)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("generated chart", "source", source, "type", p.ChartType, "series", res.Series, "bytes", len(res.SVG))
	return res, nil
}

// load fetches, normalizes and transforms the table described by in.
func (r *Runner) load(ctx context.Context, in Input) (string, *table.Table, error) {
	source, err := in.validate()
	if err != nil {
		return "", nil, err
	}
	t, err := r.Fetch(ctx, source, in.DataParams)
	if err != nil {
		return "", nil, err
	}
	if in.Transform != nil && !in.Transform.IsZero() {
		before := t.Len()
		t = transform.Apply(t, *in.Transform)
		r.Logger.Debug("transformed rows", "before", before, "after", t.Len())
	}
	return source, t, nil
}
