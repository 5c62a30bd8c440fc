package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statbridge/pkg/config"
	"github.com/matzehuels/statbridge/pkg/dump"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/observability"
	"github.com/matzehuels/statbridge/pkg/stats"
	"github.com/matzehuels/statbridge/pkg/transform"
)

const indicatorBody = `[
  {"page": 1, "pages": 1, "per_page": "1000", "total": 4},
  [
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "JP", "value": "Japan"}, "countryiso3code": "JPN", "date": "2021", "value": 300},
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "JP", "value": "Japan"}, "countryiso3code": "JPN", "date": "2020", "value": 100},
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "US", "value": "United States"}, "countryiso3code": "USA", "date": "2021", "value": 700},
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "US", "value": "United States"}, "countryiso3code": "USA", "date": "2020", "value": null}
  ]
]`

const statsListBody = `{
  "GET_STATS_LIST": {
    "RESULT": {"STATUS": 0, "ERROR_MSG": "正常に終了しました。"},
    "DATALIST_INF": {
      "NUMBER": 1,
      "TABLE_INF": {
        "@id": "0003410379",
        "STAT_NAME": {"@code": "00200521", "$": "国勢調査"},
        "GOV_ORG": {"@code": "00200", "$": "総務省"},
        "TITLE": {"@no": "001", "$": "人口等基本集計"},
        "SURVEY_DATE": 201501,
        "OPEN_DATE": "2016-10-26",
        "OVERALL_TOTAL_NUMBER": 1240
      }
    }
  }
}`

const statsDataBody = `{
  "GET_STATS_DATA": {
    "RESULT": {"STATUS": 0, "ERROR_MSG": "正常に終了しました。"},
    "STATISTICAL_DATA": {
      "RESULT_INF": {"TOTAL_NUMBER": 2, "FROM_NUMBER": 1, "TO_NUMBER": 2},
      "TABLE_INF": {"@id": "0004025681", "TITLE": "空き家"},
      "CLASS_INF": {
        "CLASS_OBJ": [
          {"@id": "cat01", "@name": "建て方", "CLASS": [
            {"@code": "100", "@name": "一戸建"},
            {"@code": "200", "@name": "長屋建"}
          ]}
        ]
      },
      "DATA_INF": {
        "VALUE": [
          {"@cat01": "100", "@area": "00000", "@time": "2018000000", "@unit": "戸", "$": "1,234"},
          {"@cat01": "200", "@area": "00000", "@time": "2018000000", "@unit": "戸", "$": "56"}
        ]
      }
    }
  }
}`

const sdmxBody = `{
  "dataSets": [{"observations": {"0:0": [10.5], "0:1": [11.5]}}],
  "structure": {
    "name": "Quarterly National Accounts",
    "dimensions": {
      "series": [],
      "observation": [
        {"id": "REF_AREA", "name": "Reference area", "values": [{"id": "JPN", "name": "Japan"}]},
        {"id": "TIME_PERIOD", "name": "Time period", "values": [{"id": "2020-Q1", "name": "2020-Q1"}, {"id": "2020-Q2", "name": "2020-Q2"}]}
      ]
    }
  }
}`

const jsonStatBody = `{
  "version": "2.0",
  "class": "dataset",
  "label": "GDP and main components",
  "id": ["geo", "time"],
  "size": [2, 2],
  "value": {"0": 40, "1": 42, "2": 30, "3": 31},
  "dimension": {
    "geo": {"label": "Geopolitical entity", "category": {"index": {"DE": 0, "FR": 1}, "label": {"DE": "Germany", "FR": "France"}}},
    "time": {"label": "Time", "category": {"index": ["2022", "2023"]}}
  }
}`

type fixture struct {
	server *httptest.Server
	mu     sync.Mutex
	paths  []string
}

func (f *fixture) hits(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// newFixture serves every source under its own path prefix.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/estat/getStatsList"):
			w.Write([]byte(statsListBody))
		case strings.HasPrefix(r.URL.Path, "/estat/getStatsData"):
			w.Write([]byte(statsDataBody))
		case strings.HasPrefix(r.URL.Path, "/worldbank/country/"):
			w.Write([]byte(indicatorBody))
		case strings.HasPrefix(r.URL.Path, "/oecd/data/"):
			w.Write([]byte(sdmxBody))
		case strings.HasPrefix(r.URL.Path, "/eurostat/data/"):
			w.Write([]byte(jsonStatBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func testConfig(f *fixture) *config.Config {
	cfg := config.Default()
	cfg.EStat.AppID = "test-app"
	cfg.EStat.BaseURL = f.server.URL + "/estat"
	cfg.WorldBank.BaseURL = f.server.URL + "/worldbank"
	cfg.OECD.BaseURL = f.server.URL + "/oecd"
	cfg.Eurostat.BaseURL = f.server.URL + "/eurostat"
	cfg.Retry.MaxRetries = 0
	cfg.Retry.InitialDelay = time.Millisecond
	return cfg
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
}

func newTestRunner(t *testing.T, opts ...Option) (*Runner, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewRunner(testConfig(f), quietLogger(), opts...), f
}

func worldbankInput() Input {
	return Input{
		DataSource: "worldbank",
		DataParams: json.RawMessage(`{"countryCode":"JP;US","indicatorCode":"SP.POP.TOTL"}`),
	}
}

func TestSearchStatistics(t *testing.T) {
	r, _ := newTestRunner(t)
	tables, err := r.SearchStatistics(context.Background(), SearchStatisticsParams{SearchWord: "国勢調査"})
	if err != nil {
		t.Fatalf("SearchStatistics: %v", err)
	}
	if len(tables) != 1 || tables[0].ID != "0003410379" {
		t.Errorf("unexpected tables: %+v", tables)
	}
}

func TestSearchStatisticsRejectsLimit(t *testing.T) {
	r, f := newTestRunner(t)
	_, err := r.SearchStatistics(context.Background(), SearchStatisticsParams{Limit: MaxSearchLimit + 1})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.hits("/") != 0 {
		t.Error("invalid arguments must not reach the upstream")
	}
}

func TestEStatRequiresAppID(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(f)
	cfg.EStat.AppID = ""
	r := NewRunner(cfg, quietLogger())

	_, err := r.GetStatisticsData(context.Background(), StatisticsDataParams{StatsDataID: "0004025681"})
	if err == nil || !strings.Contains(err.Error(), "ESTAT_APP_ID") {
		t.Fatalf("expected missing app id error, got %v", err)
	}
	if f.hits("/estat") != 0 {
		t.Error("request sent without app id")
	}
}

func TestDisabledSource(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(f)
	cfg.OECD.Enabled = false
	r := NewRunner(cfg, quietLogger())

	_, err := r.GetSDMXData(context.Background(), SDMXParams{DatasetID: "DSD_NAMAIN1@DF_QNA"})
	if errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestGetStatisticsData(t *testing.T) {
	r, _ := newTestRunner(t)
	data, err := r.GetStatisticsData(context.Background(), StatisticsDataParams{StatsDataID: "0004025681"})
	if err != nil {
		t.Fatalf("GetStatisticsData: %v", err)
	}
	if len(data.Observations) != 2 {
		t.Errorf("expected 2 observations, got %d", len(data.Observations))
	}
}

func TestGetIndicatorData(t *testing.T) {
	r, f := newTestRunner(t)
	points, err := r.GetIndicatorData(context.Background(), IndicatorDataParams{CountryCode: "JP", IndicatorCode: "SP.POP.TOTL"})
	if err != nil {
		t.Fatalf("GetIndicatorData: %v", err)
	}
	if len(points) != 4 {
		t.Errorf("expected 4 points, got %d", len(points))
	}
	if f.hits("/worldbank/country/JP/indicator/SP.POP.TOTL") != 1 {
		t.Errorf("unexpected requests: %v", f.paths)
	}
}

func TestGetIndicatorDataValidation(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.GetIndicatorData(context.Background(), IndicatorDataParams{CountryCode: "JP", IndicatorCode: "X", StartYear: 2020, EndYear: 2010})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRawPassThrough(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	sdmx, err := r.GetSDMXData(ctx, SDMXParams{DatasetID: "DSD_NAMAIN1@DF_QNA"})
	if err != nil {
		t.Fatalf("GetSDMXData: %v", err)
	}
	if !strings.Contains(string(sdmx), "Quarterly National Accounts") {
		t.Errorf("SDMX body not passed through: %s", sdmx)
	}

	js, err := r.GetJSONStatData(ctx, JSONStatParams{DatasetCode: "nama_10_gdp", Lang: "fr"})
	if err != nil {
		t.Fatalf("GetJSONStatData: %v", err)
	}
	if !strings.Contains(string(js), "GDP and main components") {
		t.Errorf("JSON-stat body not passed through: %s", js)
	}
}

func TestFetchNormalizesEverySource(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	tests := []struct {
		source string
		params string
		rows   int
		column string
	}{
		{"estat", `{"statsDataId":"0004025681"}`, 2, "cat01_label"},
		{"world-bank", `{"countryCode":"JP","indicatorCode":"SP.POP.TOTL"}`, 3, "country_name"},
		{"sdmx", `{"datasetId":"DSD_NAMAIN1@DF_QNA"}`, 2, "TIME_PERIOD"},
		{"eurostat", `{"datasetCode":"nama_10_gdp","filters":{"geo":["DE","FR"],"unit":"CP_MEUR"}}`, 4, "geo"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tbl, err := r.Fetch(ctx, tt.source, json.RawMessage(tt.params))
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if tbl.Len() != tt.rows {
				t.Errorf("rows = %d, want %d", tbl.Len(), tt.rows)
			}
			if !tbl.HasColumn(tt.column) {
				t.Errorf("missing column %q in %v", tt.column, tbl.Columns)
			}
		})
	}
}

func TestFetchRejectsUnknownParam(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Fetch(context.Background(), "worldbank", json.RawMessage(`{"country":"JP","indicatorCode":"X"}`))
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportDataCSV(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.ExportData(context.Background(), ExportParams{Input: worldbankInput(), Format: "csv"})
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(res.Data), "\n")
	if lines[0] != "country_code,country_name,year,value,indicator_id,indicator_name" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if res.Metadata.RowCount != 3 || res.Metadata.Source != "worldbank" {
		t.Errorf("unexpected metadata: %+v", res.Metadata)
	}
}

func TestExportDataDefaultsToJSON(t *testing.T) {
	r, _ := newTestRunner(t)
	in := worldbankInput()
	in.Transform = &transform.Options{Sort: []transform.SortKey{{Column: "value", Order: transform.Desc}}}
	res, err := r.ExportData(context.Background(), ExportParams{Input: in})
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(res.Data), &rows); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(rows) != 3 || rows[0]["value"] != 700.0 {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestExportDataRejectsFormat(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.ExportData(context.Background(), ExportParams{Input: worldbankInput(), Format: "xml"})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportDataRejectsSource(t *testing.T) {
	r, _ := newTestRunner(t)
	in := worldbankInput()
	in.DataSource = "imf"
	_, err := r.ExportData(context.Background(), ExportParams{Input: in})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateStatistics(t *testing.T) {
	r, _ := newTestRunner(t)
	rep, err := r.CalculateStatistics(context.Background(), StatisticsParams{
		Input:      worldbankInput(),
		Statistics: []string{"mean", "max"},
	})
	if err != nil {
		t.Fatalf("CalculateStatistics: %v", err)
	}
	if rep.Result == nil || rep.Result.Count != 3 {
		t.Fatalf("unexpected result: %+v", rep.Result)
	}
	if mean, _ := rep.Result.Get(stats.Mean); mean != 1100.0/3 {
		t.Errorf("mean = %v", mean)
	}
	if max, _ := rep.Result.Get(stats.Max); max != 700 {
		t.Errorf("max = %v", max)
	}
}

func TestCalculateStatisticsGrouped(t *testing.T) {
	r, _ := newTestRunner(t)
	rep, err := r.CalculateStatistics(context.Background(), StatisticsParams{
		Input:      worldbankInput(),
		Statistics: []string{"mean"},
		GroupBy:    "country_name",
	})
	if err != nil {
		t.Fatalf("CalculateStatistics: %v", err)
	}
	if len(rep.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rep.Groups))
	}
	for _, g := range rep.Groups {
		mean, _ := g.Get(stats.Mean)
		switch g.Key {
		case "Japan":
			if mean != 200 {
				t.Errorf("Japan mean = %v", mean)
			}
		case "United States":
			if mean != 700 {
				t.Errorf("United States mean = %v", mean)
			}
		default:
			t.Errorf("unexpected group %q", g.Key)
		}
	}
}

func TestCalculateStatisticsValidation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	_, err := r.CalculateStatistics(ctx, StatisticsParams{Input: worldbankInput(), Statistics: []string{"kurtosis"}})
	if !errors.IsValidation(err) {
		t.Errorf("unknown statistic: expected validation error, got %v", err)
	}
	_, err = r.CalculateStatistics(ctx, StatisticsParams{Input: worldbankInput()})
	if !errors.IsValidation(err) {
		t.Errorf("empty statistics: expected validation error, got %v", err)
	}
	_, err = r.CalculateStatistics(ctx, StatisticsParams{Input: worldbankInput(), Statistics: []string{"mean"}, GroupBy: "region"})
	if !errors.IsValidation(err) {
		t.Errorf("unknown groupBy: expected validation error, got %v", err)
	}
}

func TestGenerateChartLine(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.GenerateChart(context.Background(), ChartParams{
		Input:     worldbankInput(),
		ChartType: "line",
		Title:     "Population",
	})
	if err != nil {
		t.Fatalf("GenerateChart: %v", err)
	}
	if res.Series != 2 {
		t.Errorf("expected one series per country, got %d", res.Series)
	}
	for _, want := range []string{"<svg", "Population", "Japan", "United States", "Source: World Bank", "Indicator: SP.POP.TOTL"} {
		if !strings.Contains(res.SVG, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if !strings.HasPrefix(res.DataURI, "data:image/svg+xml;base64,") {
		t.Errorf("unexpected data URI prefix: %.40s", res.DataURI)
	}
}

func TestGenerateChartWithoutAttribution(t *testing.T) {
	r, _ := newTestRunner(t)
	off := false
	res, err := r.GenerateChart(context.Background(), ChartParams{
		Input:       worldbankInput(),
		ChartType:   "bar",
		Attribution: &off,
	})
	if err != nil {
		t.Fatalf("GenerateChart: %v", err)
	}
	if strings.Contains(res.SVG, "Source:") {
		t.Error("attribution rendered although disabled")
	}
}

func TestGenerateChartPie(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.GenerateChart(context.Background(), ChartParams{
		Input: Input{
			DataSource: "eurostat",
			DataParams: json.RawMessage(`{"datasetCode":"nama_10_gdp"}`),
		},
		ChartType: "PIE",
	})
	if err != nil {
		t.Fatalf("GenerateChart: %v", err)
	}
	if res.ChartType != ChartPie || res.Series != 2 {
		t.Errorf("unexpected result: type %s, series %d", res.ChartType, res.Series)
	}
	for _, want := range []string{"Germany", "France", "Source: Eurostat"} {
		if !strings.Contains(res.SVG, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestGenerateChartValidation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    ChartParams
	}{
		{"chart type", ChartParams{Input: worldbankInput(), ChartType: "radar"}},
		{"width", ChartParams{Input: worldbankInput(), ChartType: "line", Width: 100}},
		{"height", ChartParams{Input: worldbankInput(), ChartType: "line", Height: MaxChartSize + 1}},
		{"column", ChartParams{Input: worldbankInput(), ChartType: "line", ValueColumn: "population"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.GenerateChart(ctx, tt.p); !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

type recordingHooks struct {
	observability.Noop
	mu       sync.Mutex
	started  []string
	finished map[string]error
}

func (h *recordingHooks) OnToolStart(_ context.Context, tool string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, tool)
}

func (h *recordingHooks) OnToolComplete(_ context.Context, tool string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished == nil {
		h.finished = map[string]error{}
	}
	h.finished[tool] = err
}

func TestToolHooks(t *testing.T) {
	hooks := &recordingHooks{}
	r, _ := newTestRunner(t, WithHooks(hooks))
	ctx := context.Background()

	if _, err := r.GetIndicatorData(ctx, IndicatorDataParams{CountryCode: "JP", IndicatorCode: "SP.POP.TOTL"}); err != nil {
		t.Fatal(err)
	}
	r.ExportData(ctx, ExportParams{Input: worldbankInput(), Format: "yaml"})

	if len(hooks.started) != 2 || hooks.started[0] != OpGetIndicatorData || hooks.started[1] != OpExportData {
		t.Errorf("unexpected starts: %v", hooks.started)
	}
	if err, ok := hooks.finished[OpGetIndicatorData]; !ok || err != nil {
		t.Errorf("indicator completion = %v, %v", err, ok)
	}
	if hooks.finished[OpExportData] == nil {
		t.Error("failed export should report its error")
	}
}

func TestDumpWritesRawBodies(t *testing.T) {
	dir, err := dump.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := newTestRunner(t, WithDump(dir))
	p := IndicatorDataParams{CountryCode: "JP", IndicatorCode: "SP.POP.TOTL"}
	if _, err := r.GetIndicatorData(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	path := dir.Path("worldbank", dump.Key(OpGetIndicatorData, p))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if string(data) != indicatorBody {
		t.Error("dump does not hold the raw body")
	}
	if filepath.Dir(filepath.Dir(path)) != filepath.Join(dir.Root(), "worldbank") {
		t.Errorf("unexpected dump path %s", path)
	}
}

func TestUpstreamErrorIsAPIError(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(f)
	cfg.WorldBank.BaseURL = f.server.URL + "/missing"
	r := NewRunner(cfg, quietLogger())

	_, err := r.GetIndicatorData(context.Background(), IndicatorDataParams{CountryCode: "JP", IndicatorCode: "SP.POP.TOTL"})
	if !errors.IsAPI(err) {
		t.Fatalf("expected API error, got %v", err)
	}
	if p := errors.ToPayload(err); p.Source != "worldbank" {
		t.Errorf("payload source = %q", p.Source)
	}
}

func TestSources(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(f)
	cfg.Eurostat.Enabled = false
	r := NewRunner(cfg, quietLogger())

	infos := r.Sources()
	if len(infos) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Name == "" || info.License == "" {
			t.Errorf("incomplete info for %s: %+v", info.ID, info)
		}
		if info.Enabled == (info.ID == "eurostat") {
			t.Errorf("%s enabled = %v", info.ID, info.Enabled)
		}
	}
}
