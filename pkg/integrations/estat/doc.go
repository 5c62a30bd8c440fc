// Package estat provides an HTTP client for the e-Stat API, the Japanese
// government statistics portal (https://www.e-stat.go.jp).
//
// # Usage
//
//	client := estat.NewClient(appID, limits, httputil.DefaultPolicy())
//	tables, body, err := client.SearchTables(ctx, estat.SearchParams{SearchWord: "人口", Limit: 10})
//	data, body, err := client.StatsData(ctx, estat.DataParams{StatsDataID: "0003410379", Limit: 100})
//
// # Envelopes
//
// Every response is wrapped in a GET_* envelope whose RESULT.STATUS reports
// success (0), "no data" (1), partial success (2) or an error (100 and up).
// Error statuses become [errors.APIError] values carrying ERROR_MSG.
//
// The API emits a single object wherever an array holds one element
// (TABLE_INF, CLASS_OBJ, CLASS, VALUE); the envelope types accept both.
//
// # Values
//
// Observation values are parsed once into a [table.Value]. The suppression
// markers "-", "...", "X" and "" become Null.
//
// [errors.APIError]: github.com/matzehuels/statbridge/pkg/errors.APIError
// [table.Value]: github.com/matzehuels/statbridge/pkg/table.Value
package estat
