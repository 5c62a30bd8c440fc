package oecd

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
)

const seriesBody = `{
  "header": {"id": "IREF000001"},
  "dataSets": [{
    "action": "Information",
    "series": {
      "0:0": {"observations": {"0": [100.5, 0], "1": [101.25, 0]}},
      "1:0": {"observations": {"0": [null]}}
    }
  }],
  "structure": {
    "name": "Quarterly National Accounts",
    "dimensions": {
      "series": [
        {"id": "REF_AREA", "name": "Reference area", "keyPosition": 0, "values": [{"id": "JPN", "name": "Japan"}, {"id": "USA", "name": "United States"}]},
        {"id": "MEASURE", "name": {"en": "Measure", "fr": "Mesure"}, "keyPosition": 1, "values": [{"id": "B1GQ", "name": "GDP"}]}
      ],
      "observation": [
        {"id": "TIME_PERIOD", "name": "Time period", "values": [{"id": "2020-Q1", "name": "2020-Q1"}, {"id": "2020-Q2", "name": "2020-Q2"}]}
      ]
    }
  }
}`

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	p := httputil.DefaultPolicy()
	p.InitialDelay = time.Millisecond
	return NewClient(nil, p).WithBaseURL(serverURL)
}

func TestClient_Data(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/data/OECD.SDD.NAD%2CDSD_NAMAIN1@DF_QNA/Q.JPN" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		q := r.URL.Query()
		if q.Get("startPeriod") != "2020-Q1" || q.Get("endPeriod") != "2020-Q4" {
			t.Errorf("unexpected period bounds %q", r.URL.RawQuery)
		}
		if r.Header.Get("Accept") != acceptSDMXJSON {
			t.Errorf("unexpected Accept %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(seriesBody))
	}))
	defer server.Close()

	msg, err := testClient(t, server.URL).Data(context.Background(), DataParams{
		DatasetID:   "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA",
		Filter:      "Q.JPN",
		StartPeriod: "2020-Q1",
		EndPeriod:   "2020-Q4",
	})
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if len(msg.Raw) == 0 {
		t.Error("raw body should be kept")
	}
	if len(msg.DataSets) != 1 || len(msg.DataSets[0].Series) != 2 {
		t.Fatalf("unexpected data sets: %+v", msg.DataSets)
	}
	if msg.Structure.Dimensions.Series[1].Name != "Measure" {
		t.Errorf("localized name = %q", msg.Structure.Dimensions.Series[1].Name)
	}
	v, ok := msg.DataSets[0].Series["0:0"].Observations["1"].Value()
	if !ok || v != 101.25 {
		t.Errorf("observation = %v, %v", v, ok)
	}
	if _, ok := msg.DataSets[0].Series["1:0"].Observations["0"].Value(); ok {
		t.Error("null observation should not have a value")
	}
}

func TestClient_DefaultFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/QNA/all" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Has("startPeriod") {
			t.Error("empty period bounds should be omitted")
		}
		w.Write([]byte(`{"data": {"dataSets": [{"observations": {"0:0": [1]}}], "structures": [{"dimensions": {"observation": [{"id": "A", "values": [{"id": "x"}]}, {"id": "B", "values": [{"id": "y"}]}]}}]}}`))
	}))
	defer server.Close()

	msg, err := testClient(t, server.URL).Data(context.Background(), DataParams{DatasetID: "QNA"})
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if len(msg.Structure.Dimensions.Observation) != 2 {
		t.Errorf("2.0 structure not decoded: %+v", msg.Structure)
	}
}

func TestClient_MissingDataSets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"header": {}}`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Data(context.Background(), DataParams{DatasetID: "QNA"})
	if !errors.IsAPI(err) {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("NoResultsFound"))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Data(context.Background(), DataParams{DatasetID: "NOPE"})
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) || apiErr.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}

func TestClient_InconsistentKeys(t *testing.T) {
	const structure = `"structure": {"dimensions": {"series": [{"id": "REF_AREA", "values": [{"id": "JPN"}]}], "observation": [{"id": "TIME_PERIOD", "values": [{"id": "2020"}]}]}}`
	tests := []struct {
		name string
		body string
	}{
		{"series key too long", `{"dataSets": [{"series": {"0:0": {"observations": {"0": [1]}}}}], ` + structure + `}`},
		{"series index out of range", `{"dataSets": [{"series": {"3": {"observations": {"0": [1]}}}}], ` + structure + `}`},
		{"negative observation index", `{"dataSets": [{"series": {"0": {"observations": {"-1": [1]}}}}], ` + structure + `}`},
		{"flat key too short", `{"dataSets": [{"observations": {"": [1]}}], ` + structure + `}`},
		{"non-numeric key", `{"dataSets": [{"observations": {"x": [1]}}], ` + structure + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(t, server.URL).Data(context.Background(), DataParams{DatasetID: "QNA"})
			var apiErr *errors.APIError
			if !stderrors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.HTTPStatus() != 0 {
				t.Errorf("status = %d, want none", apiErr.HTTPStatus())
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("upstream called %d times, want 1 (not retried)", n)
			}
		})
	}
}
