package worldbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
)

const indicatorBody = `[
  {"page": 1, "pages": 1, "per_page": "1000", "total": 3},
  [
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "JP", "value": "Japan"}, "countryiso3code": "JPN", "date": "2021", "value": 125681593},
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "JP", "value": "Japan"}, "countryiso3code": "JPN", "date": "2020", "value": 126261000},
    {"indicator": {"id": "SP.POP.TOTL", "value": "Population, total"}, "country": {"id": "JP", "value": "Japan"}, "countryiso3code": "JPN", "date": "2019", "value": null}
  ]
]`

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	p := httputil.DefaultPolicy()
	p.InitialDelay = time.Millisecond
	return NewClient(nil, p).WithBaseURL(serverURL)
}

func TestClient_Indicator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/country/JP;US/indicator/SP.POP.TOTL" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("date") != "2019:2021" || q.Get("per_page") != "1000" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(indicatorBody))
	}))
	defer server.Close()

	points, _, err := testClient(t, server.URL).Indicator(context.Background(), IndicatorParams{
		CountryCode:   "JP;US",
		IndicatorCode: "SP.POP.TOTL",
		StartYear:     2019,
		EndYear:       2021,
	})
	if err != nil {
		t.Fatalf("Indicator failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	p := points[0]
	if p.CountryCode != "JPN" || p.CountryName != "Japan" || p.Date != "2021" || p.IndicatorName != "Population, total" {
		t.Errorf("unexpected point: %+v", p)
	}
	if p.Value == nil || *p.Value != 125681593 {
		t.Errorf("unexpected value: %v", p.Value)
	}
	if points[2].Value != nil {
		t.Error("null value should decode as nil")
	}
}

func TestClient_IndicatorNoData(t *testing.T) {
	for _, body := range []string{
		`[{"page": 0, "pages": 0, "per_page": 50, "total": 0}, null]`,
		`[{"page": 0, "pages": 0, "per_page": 50, "total": 0}]`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		points, _, err := testClient(t, server.URL).Indicator(context.Background(), IndicatorParams{CountryCode: "JP", IndicatorCode: "X"})
		server.Close()
		if err != nil {
			t.Fatalf("body %s: unexpected error %v", body, err)
		}
		if points == nil || len(points) != 0 {
			t.Errorf("body %s: expected empty non-nil slice, got %v", body, points)
		}
	}
}

func TestClient_MessageEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"message": [{"id": "120", "key": "Invalid value", "value": "The provided parameter value is not valid"}]}]`))
	}))
	defer server.Close()

	_, _, err := testClient(t, server.URL).Indicator(context.Background(), IndicatorParams{CountryCode: "ZZZ", IndicatorCode: "X"})
	if !errors.IsAPI(err) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !strings.Contains(err.Error(), "not valid") {
		t.Errorf("error should carry upstream message: %v", err)
	}
}

func TestClient_MalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	_, _, err := testClient(t, server.URL).Indicator(context.Background(), IndicatorParams{CountryCode: "JP", IndicatorCode: "X"})
	if !errors.IsAPI(err) || !strings.Contains(err.Error(), "invalid response") {
		t.Fatalf("expected invalid response APIError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_SearchIndicators(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indicator" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"page":1,"pages":1,"per_page":"50","total":3},[
			{"id":"SP.POP.TOTL","name":"Population, total","sourceNote":"Total population","sourceOrganization":"UN"},
			{"id":"NY.GDP.MKTP.CD","name":"GDP (current US$)"},
			{"id":"SP.POP.GROW","name":"Population growth (annual %)"}
		]]`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	got, _, err := c.SearchIndicators(context.Background(), "POPULATION")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "SP.POP.TOTL" || got[0].SourceOrganization != "UN" {
		t.Errorf("unexpected result: %+v", got)
	}

	got, _, err = c.SearchIndicators(context.Background(), "gdp")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "NY.GDP.MKTP.CD" {
		t.Errorf("id match failed: %+v", got)
	}

	all, _, _ := c.SearchIndicators(context.Background(), "")
	if len(all) != 3 {
		t.Errorf("empty search should return all, got %d", len(all))
	}
}

func TestClient_Countries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"page":1,"pages":1,"per_page":"500","total":1},[
			{"id":"JPN","iso2Code":"JP","name":"Japan","region":{"id":"EAS","value":"East Asia & Pacific "},"incomeLevel":{"id":"HIC","value":"High income"},"capitalCity":"Tokyo"}
		]]`))
	}))
	defer server.Close()

	got, _, err := testClient(t, server.URL).Countries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Region != "East Asia & Pacific" || got[0].CapitalCity != "Tokyo" {
		t.Errorf("unexpected countries: %+v", got)
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		start, end int
		want       string
	}{
		{2000, 2010, "2000:2010"},
		{2000, 0, "2000:2100"},
		{0, 2010, "1960:2010"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := dateRange(tt.start, tt.end); got != tt.want {
			t.Errorf("dateRange(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}
