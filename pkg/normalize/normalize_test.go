package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/integrations/oecd"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
	"github.com/matzehuels/statbridge/pkg/table"
)

func ptr(f float64) *float64 { return &f }

func TestIndicatorsDropsNulls(t *testing.T) {
	tbl := Indicators([]worldbank.Point{
		{CountryCode: "JPN", CountryName: "Japan", Date: "2020", Value: ptr(1.5), IndicatorID: "X", IndicatorName: "Ex"},
		{CountryCode: "JPN", CountryName: "Japan", Date: "2019", Value: nil},
		{CountryCode: "USA", Date: "2020", Value: ptr(0)},
	})
	want := []string{"country_code", "country_name", "year", "value", "indicator_id", "indicator_name"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v", tbl.Columns)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if tbl.Rows[1]["country_name"].String() != "USA" {
		t.Error("missing country name should fall back to the code")
	}
	if v, _ := tbl.Rows[1]["value"].Float(); v != 0 {
		t.Error("zero values must be kept")
	}
}

func statsFixture() *estat.StatsData {
	return &estat.StatsData{
		Classes: []estat.ClassObj{
			{ID: "cat01", Name: "建て方", Items: []estat.ClassItem{{Code: "100", Name: "一戸建"}, {Code: "200", Name: "長屋建"}}},
			{ID: "area", Name: "地域", Items: []estat.ClassItem{{Code: "00000", Name: "全国"}}},
		},
		Observations: []estat.Observation{
			{Cat01: "100", Area: "00000", Time: "2018", Raw: "1,000", Value: table.ParseValue("1,000")},
			{Cat01: "200", Area: "00000", Time: "2018", Raw: "-", Value: table.ParseValue("-")},
			{Cat01: "100", Area: "13000", Time: "2018", Raw: "250", Value: table.ParseValue("250")},
			{Cat01: "300", Area: "00000", Time: "2018", Raw: "X", Value: table.ParseValue("X")},
			{Cat01: "300", Area: "00000", Time: "2013", Raw: "5", Value: table.ParseValue("5")},
		},
	}
}

func TestStatsData(t *testing.T) {
	tbl := StatsData(statsFixture())
	want := []string{"index", "tab", "cat01", "cat01_label", "area", "area_label", "time", "time_label", "unit", "value"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns = %v", tbl.Columns)
	}
	if tbl.Len() != 5 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	r0 := tbl.Rows[0]
	if r0["cat01_label"].String() != "一戸建" || r0["area_label"].String() != "全国" {
		t.Errorf("labels not resolved: %v", r0)
	}
	if tbl.Rows[2]["area_label"].String() != "13000" {
		t.Error("unknown area should fall back to its code")
	}
	if !tbl.Rows[1]["value"].IsNull() {
		t.Error("sentinel should be null")
	}
	if idx, _ := tbl.Rows[4]["index"].Float(); idx != 4 {
		t.Errorf("index = %v", idx)
	}
}

func TestStatsDataEdgeShapes(t *testing.T) {
	one := StatsData(&estat.StatsData{Observations: []estat.Observation{
		{Area: "13000", Raw: "980", Value: table.Number(980)},
	}})
	if one.Len() != 1 {
		t.Fatalf("rows = %d, want 1", one.Len())
	}
	if idx, ok := one.Rows[0]["index"].Float(); !ok || idx != 0 {
		t.Errorf("index = %v", one.Rows[0]["index"])
	}
	if one.Rows[0]["area_label"].String() != "13000" {
		t.Errorf("area_label = %v", one.Rows[0]["area_label"])
	}

	if empty := StatsData(&estat.StatsData{}); empty.Len() != 0 {
		t.Errorf("no observations should give no rows, got %d", empty.Len())
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(statsFixture())
	if s.Total != 1255 || s.Counted != 3 || s.Skipped != 2 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Breakdowns) != 1 {
		t.Fatalf("breakdowns = %+v", s.Breakdowns)
	}
	b := s.Breakdowns[0]
	got := []Category{}
	got = append(got, b.Categories...)
	want := []Category{
		{Code: "100", Label: "一戸建", Total: 1250},
		{Code: "300", Label: "300", Total: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("categories = %+v", got)
	}
	if b.ByTotal()[0].Code != "100" {
		t.Error("ByTotal should order descending")
	}
}

func TestSDMXSeries(t *testing.T) {
	var msg oecd.Message
	body := `{
	  "dataSets": [{"series": {
	    "1:0": {"observations": {"0": [3]}},
	    "0:0": {"observations": {"1": [2], "0": [1]}}
	  }}],
	  "structure": {"dimensions": {
	    "series": [
	      {"id": "REF_AREA", "values": [{"id": "JPN", "name": "Japan"}, {"id": "USA", "name": "United States"}]},
	      {"id": "MEASURE", "values": [{"id": "GDP", "name": "GDP"}]}
	    ],
	    "observation": [{"id": "TIME_PERIOD", "values": [{"id": "2020", "name": "2020"}, {"id": "2021", "name": "2021"}]}]
	  }}
	}`
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatal(err)
	}
	tbl := SDMX(&msg)
	want := []string{"REF_AREA", "REF_AREA_code", "MEASURE", "TIME_PERIOD", "value"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns = %v", tbl.Columns)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	var values []float64
	for _, r := range tbl.Rows {
		v, _ := r["value"].Float()
		values = append(values, v)
	}
	if !reflect.DeepEqual(values, []float64{1, 2, 3}) {
		t.Errorf("rows not in key order: %v", values)
	}
	if tbl.Rows[2]["REF_AREA"].String() != "United States" || tbl.Rows[2]["REF_AREA_code"].String() != "USA" {
		t.Errorf("row = %v", tbl.Rows[2])
	}
}

func TestSDMXFlatObservations(t *testing.T) {
	var msg oecd.Message
	body := `{
	  "dataSets": [{"observations": {"0:1": [7.5], "0:0": [null]}}],
	  "structure": {"dimensions": {"observation": [
	    {"id": "REF_AREA", "values": [{"id": "JPN"}]},
	    {"id": "TIME_PERIOD", "values": [{"id": "2020"}, {"id": "2021"}]}
	  ]}}
	}`
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatal(err)
	}
	tbl := SDMX(&msg)
	if tbl.Len() != 2 || !tbl.Rows[0]["value"].IsNull() {
		t.Fatalf("rows = %v", tbl.Rows)
	}
	if tbl.Rows[1]["TIME_PERIOD"].String() != "2021" {
		t.Errorf("row = %v", tbl.Rows[1])
	}
}

func TestJSONStat(t *testing.T) {
	ds := &eurostat.Dataset{
		ID:   []string{"geo", "time"},
		Size: []int{2, 2},
		Dimensions: map[string]eurostat.Dimension{
			"geo":  {Categories: []eurostat.Category{{ID: "DE", Label: "Germany"}, {ID: "FR", Label: "France"}}},
			"time": {Categories: []eurostat.Category{{ID: "2022", Label: "2022"}, {ID: "2023", Label: "2023"}}},
		},
		Values: map[int]float64{0: 10, 1: 11, 3: 21},
		Status: map[int]string{2: "c"},
	}
	tbl := JSONStat(ds)
	want := []string{"geo", "geo_code", "time", "value", "status"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns = %v", tbl.Columns)
	}
	if tbl.Len() != 4 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	r := tbl.Rows[2]
	if r["geo"].String() != "France" || r["time"].String() != "2022" || !r["value"].IsNull() || r["status"].String() != "c" {
		t.Errorf("row 2 = %v", r)
	}
	if v, _ := tbl.Rows[3]["value"].Float(); v != 21 {
		t.Errorf("row 3 value = %v", v)
	}
}

func TestJSONStatSkipsEmptyCells(t *testing.T) {
	ds := &eurostat.Dataset{
		ID:         []string{"geo"},
		Size:       []int{3},
		Dimensions: map[string]eurostat.Dimension{"geo": {Categories: []eurostat.Category{{ID: "A", Label: "A"}, {ID: "B", Label: "B"}, {ID: "C", Label: "C"}}}},
		Values:     map[int]float64{1: 5},
	}
	tbl := JSONStat(ds)
	if tbl.Len() != 1 || tbl.Rows[0]["geo"].String() != "B" {
		t.Errorf("rows = %v", tbl.Rows)
	}
	if tbl.HasColumn("status") {
		t.Error("status column should only appear when flags exist")
	}
}

func TestJSONStatToleratesInconsistentShape(t *testing.T) {
	geo := map[string]eurostat.Dimension{"geo": {Categories: []eurostat.Category{{ID: "DE", Label: "DE"}, {ID: "FR", Label: "FR"}}}}
	for _, ds := range []*eurostat.Dataset{
		{ID: []string{"geo"}, Size: []int{2, 2}, Dimensions: geo, Values: map[int]float64{0: 1, 3: 4}},
		{ID: []string{"geo"}, Size: []int{-2, -2}, Dimensions: geo, Values: map[int]float64{0: 1, 1: 2, 2: 3}},
	} {
		tbl := JSONStat(ds)
		for _, r := range tbl.Rows {
			if v := r["geo"]; !v.IsNull() && v.String() != "DE" && v.String() != "FR" {
				t.Errorf("size %v: geo = %v", ds.Size, v)
			}
		}
	}
}
