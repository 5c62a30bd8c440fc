// Package integrations provides HTTP clients for public statistics APIs.
//
// # Overview
//
// This package contains low-level API clients for fetching statistical data
// from four upstreams. Each upstream has its own subpackage:
//
//   - [estat]: e-Stat, the Japanese government statistics portal
//   - [worldbank]: World Bank Indicators API
//   - [oecd]: OECD SDMX REST endpoint (SDMX-JSON)
//   - [eurostat]: Eurostat dissemination API (JSON-stat 2.0)
//
// # Client Pattern
//
// All source clients follow a consistent pattern:
//
//	limits := httputil.NewRateLimits(nil)
//	client := worldbank.NewClient(limits, httputil.DefaultPolicy())
//	points, body, err := client.Indicator(ctx, worldbank.IndicatorParams{...})
//
// Clients handle:
//   - Per-source rate limiting through the injected registry
//   - Retry with exponential backoff for transport failures, 429 and 5xx
//   - Validation of the upstream envelope shape
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all source
// clients. Every failure it returns is an [errors.APIError] attributed to the
// client's source id.
//
// # Adding a New Source
//
//  1. Create a subpackage: pkg/integrations/<source>/
//  2. Define envelope structs matching the API schema
//  3. Implement a Client embedding [Client]
//  4. Add a normalizer in [normalize]
//  5. Wire it into [pipeline.Runner]
//
// [estat]: github.com/matzehuels/statbridge/pkg/integrations/estat
// [worldbank]: github.com/matzehuels/statbridge/pkg/integrations/worldbank
// [oecd]: github.com/matzehuels/statbridge/pkg/integrations/oecd
// [eurostat]: github.com/matzehuels/statbridge/pkg/integrations/eurostat
// [errors.APIError]: github.com/matzehuels/statbridge/pkg/errors.APIError
// [normalize]: github.com/matzehuels/statbridge/pkg/normalize
// [pipeline.Runner]: github.com/matzehuels/statbridge/pkg/pipeline.Runner
package integrations
