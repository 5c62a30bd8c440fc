// Package eurostat provides an HTTP client for the Eurostat dissemination
// API (https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0),
// which serves datasets as JSON-stat 2.0.
//
// # Usage
//
//	client := eurostat.NewClient(limits, httputil.DefaultPolicy())
//	ds, err := client.Data(ctx, eurostat.DataParams{
//	    DatasetCode: "nama_10_gdp",
//	    Filters:     map[string][]string{"geo": {"DE", "FR"}, "unit": {"CP_MEUR"}},
//	    Lang:        "EN",
//	})
//
// A body without a top-level "dataset" or "dimension" key is rejected as
// malformed. [Dataset] keeps the raw body and a decoded view whose values
// are addressed by row-major position over the dimension sizes.
package eurostat
