// Package worldbank provides an HTTP client for the World Bank Indicators API
// v2 (https://api.worldbank.org/v2).
//
// # Usage
//
//	client := worldbank.NewClient(limits, httputil.DefaultPolicy())
//	points, body, err := client.Indicator(ctx, worldbank.IndicatorParams{
//	    CountryCode:   "JP;US",
//	    IndicatorCode: "NY.GDP.MKTP.CD",
//	    StartYear:     2010,
//	    EndYear:       2020,
//	})
//
// The raw body is returned alongside the decoded value for dumping.
//
// # Envelope
//
// Every JSON response is a two-element array [metadata, data]. An error is
// reported as a single-element array holding a message object. A missing or
// null data element means "no data for this query" and yields an empty
// slice, not an error.
package worldbank
