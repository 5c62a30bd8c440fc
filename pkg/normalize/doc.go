// Package normalize converts source-specific results into the uniform
// [table.Table] model.
//
// Each source has one entry point:
//
//   - [Indicators]: World Bank points, null values dropped
//   - [StatsData]: e-Stat observations with category labels resolved
//   - [SDMX]: OECD SDMX-JSON series and observations
//   - [JSONStat]: Eurostat JSON-stat cells
//
// Numeric text goes through [ParseValue] everywhere, including the totals
// computed by [Summarize], so suppressed cells never contribute to a sum.
//
// [table.Table]: github.com/matzehuels/statbridge/pkg/table.Table
package normalize
