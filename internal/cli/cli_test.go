package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/stats"
	"github.com/matzehuels/statbridge/pkg/table"
	"github.com/matzehuels/statbridge/pkg/transform"
)

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := map[string]string{
		"search":     groupFetch,
		"data":       groupFetch,
		"indicator":  groupFetch,
		"indicators": groupFetch,
		"sdmx":       groupFetch,
		"jsonstat":   groupFetch,
		"browse":     groupFetch,
		"export":     groupAnalyze,
		"stats":      groupAnalyze,
		"chart":      groupAnalyze,
		"serve":      groupServe,
		"mcp":        groupServe,
		"tools":      groupServe,
		"sources":    groupServe,
		"dump":       "",
		"completion": "",
	}
	got := map[string]string{}
	for _, cmd := range root.Commands() {
		got[cmd.Name()] = cmd.GroupID
	}
	for name, group := range want {
		g, ok := got[name]
		if !ok {
			t.Errorf("missing command %q", name)
			continue
		}
		if g != group {
			t.Errorf("%s group = %q, want %q", name, g, group)
		}
	}
	for _, flag := range []string{"config", "dump"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestAnalysisCommandsRequireSource(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"stats", "--params", "{}"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "source") {
		t.Errorf("err = %v, want missing --source", err)
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"geo=DE, FR", "unit=CP_MEUR", "geo=IT"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got["geo"], ",") != "DE,FR,IT" {
		t.Errorf("geo = %v", got["geo"])
	}
	if strings.Join(got["unit"], ",") != "CP_MEUR" {
		t.Errorf("unit = %v", got["unit"])
	}

	for _, bad := range []string{"geo", "=DE", "geo="} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Errorf("parseFilters(%q) should fail", bad)
		}
	}

	none, err := parseFilters(nil)
	if err != nil || none != nil {
		t.Errorf("parseFilters(nil) = %v, %v", none, err)
	}
}

func TestInputOpts(t *testing.T) {
	o := inputOpts{
		source:  "wb",
		params:  `{"countryCode":"JP","indicatorCode":"SP.POP.TOTL"}`,
		filters: []string{"year=2020", "country_name=Japan"},
		sorts:   []string{"value:desc", "country_name"},
	}
	in, err := o.input()
	if err != nil {
		t.Fatal(err)
	}
	if in.DataSource != "wb" {
		t.Errorf("DataSource = %q", in.DataSource)
	}
	if in.Transform == nil {
		t.Fatal("Transform should be set")
	}
	if v := in.Transform.Filter["year"]; !v.Equal(table.String("2020")) {
		t.Errorf("filter value = %v, want string 2020", v)
	}
	if v := in.Transform.Filter["country_name"]; v.String() != "Japan" {
		t.Errorf("filter value = %v, want Japan", v)
	}
	wantSort := []transform.SortKey{
		{Column: "value", Order: transform.Desc},
		{Column: "country_name", Order: transform.Asc},
	}
	if len(in.Transform.Sort) != len(wantSort) {
		t.Fatalf("sort = %v", in.Transform.Sort)
	}
	for i, k := range wantSort {
		if in.Transform.Sort[i] != k {
			t.Errorf("sort[%d] = %v, want %v", i, in.Transform.Sort[i], k)
		}
	}
}

func TestInputOptsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts inputOpts
	}{
		{"bad params", inputOpts{source: "oecd", params: "{"}},
		{"bad transform", inputOpts{source: "oecd", params: "{}", transform: "["}},
		{"bad where", inputOpts{source: "oecd", params: "{}", filters: []string{"year"}}},
		{"bad sort order", inputOpts{source: "oecd", params: "{}", sorts: []string{"year:up"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.input(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInputOptsNoTransform(t *testing.T) {
	in, err := (&inputOpts{source: "eurostat", params: `{"datasetCode":"demo_pjan"}`}).input()
	if err != nil {
		t.Fatal(err)
	}
	if in.Transform != nil {
		t.Errorf("Transform = %+v, want nil", in.Transform)
	}
}

func TestReportTable(t *testing.T) {
	rep := &pipeline.StatisticsReport{
		GroupBy: "country_name",
		Groups: []stats.Group{
			{Column: "country_name", Key: "Japan", Result: stats.Result{Count: 2, Sum: 400, Values: map[stats.Kind]float64{stats.Mean: 200}}},
			{Column: "country_name", Key: "Empty", Result: stats.Result{Values: map[stats.Kind]float64{stats.Mean: math.NaN()}}},
		},
	}
	tbl := reportTable(rep, []string{"mean", "bogus"})
	if got := strings.Join(tbl.Columns, ","); got != "country_name,count,sum,mean" {
		t.Errorf("columns = %s", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	if v, _ := tbl.Rows[0].Get("mean").Float(); v != 200 {
		t.Errorf("mean = %v", v)
	}
	if !tbl.Rows[1].Get("mean").IsNull() {
		t.Error("NaN should render as null")
	}

	single := reportTable(&pipeline.StatisticsReport{Result: &stats.Result{Count: 1, Sum: 5}}, nil)
	if single.Len() != 1 || strings.Join(single.Columns, ",") != "count,sum" {
		t.Errorf("single = %v %d", single.Columns, single.Len())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("raw = %q", buf.String())
	}

	buf.Reset()
	if err := writeJSON(&buf, map[string]int{"b": 2}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"b\": 2\n}\n" {
		t.Errorf("value = %q", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	tbl := table.New("id", "value")
	for i := 0; i < 5; i++ {
		tbl.AppendValues(table.String(strings.Repeat("x", 60)), table.Number(float64(i)))
	}
	out := renderTable(tbl, 2)
	if !strings.Contains(out, "3 more rows") {
		t.Errorf("missing overflow note:\n%s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 60)) {
		t.Error("long cells should be truncated")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("東京都千代田区", 4); got != "東京都…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}

func TestTableListModel(t *testing.T) {
	tables := []estat.TableInfo{{ID: "001", Title: "Population"}, {ID: "002", Title: "Housing"}}
	var m tea.Model = NewTableListModel(tables)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(TableListModel).Cursor; got != 1 {
		t.Errorf("cursor = %d, want 1 (clamped)", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel := m.(TableListModel).Selected
	if sel == nil || sel.ID != "001" {
		t.Fatalf("selected = %+v", sel)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
	if view := m.View(); !strings.Contains(view, "Population") {
		t.Errorf("view missing title:\n%s", view)
	}
}

func TestTableListModelEmpty(t *testing.T) {
	m, cmd := NewTableListModel(nil).Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(TableListModel).Selected != nil || cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
}

func TestFormatOpenDate(t *testing.T) {
	if got := formatOpenDate("2019-03-05"); got != "Mar 5, 2019" {
		t.Errorf("old date = %q", got)
	}
	if got := formatOpenDate(time.Now().AddDate(0, 0, 3).Format("2006-01-02")); strings.HasSuffix(got, "ago") {
		t.Errorf("future date = %q", got)
	}
	if got := formatOpenDate(""); got != "—" {
		t.Errorf("empty = %q", got)
	}
	if got := formatOpenDate("2019"); got != "2019" {
		t.Errorf("unparsed = %q", got)
	}
}

func TestListCompletions(t *testing.T) {
	vals := []string{"mean", "median", "max", "min"}
	tests := []struct {
		in   string
		want string
	}{
		{"m", "mean,median,max,min"},
		{"me", "mean,median"},
		{"mean,m", "mean,median|mean,max|mean,min"},
		{"mean,max,", "mean,max,median|mean,max,min"},
	}
	for _, tt := range tests {
		got := listCompletions(vals, tt.in)
		sep := ","
		if strings.Contains(tt.in, ",") {
			sep = "|"
		}
		if strings.Join(got, sep) != tt.want {
			t.Errorf("listCompletions(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFlagCompletions(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	cmd, _, err := root.Find([]string{"chart"})
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := cmd.GetFlagCompletionFunc("type")
	if !ok {
		t.Fatal("--type has no completion")
	}
	got, _ := fn(cmd, nil, "")
	if strings.Join(got, ",") != strings.Join(pipeline.ChartTypes, ",") {
		t.Errorf("chart types = %v", got)
	}
	if _, ok := cmd.GetFlagCompletionFunc("source"); !ok {
		t.Error("--source has no completion")
	}
}
