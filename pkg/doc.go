// Package pkg provides the core libraries of statbridge, one interface over
// the public statistics APIs of e-Stat (Japan), the World Bank, the OECD and
// Eurostat.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [integrations] - upstream clients (e-Stat, World Bank, OECD SDMX, Eurostat JSON-stat)
//  2. [table], [normalize], [transform] - the shared tabular model and its reshaping
//  3. [stats], [chart], [export] - derived outputs over a table
//  4. [pipeline], [tools], [server] - orchestration and the tool-call surfaces
//
// Supporting packages: [config] (layered settings), [errors] (classified
// errors and wire payloads), [httputil] (rate limiting and retry),
// [observability] (operation hooks), [dump] (raw response capture) and
// [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Upstream API (e-Stat / World Bank / OECD / Eurostat)
//	         ↓
//	    [integrations] clients (rate limited, retried)
//	         ↓
//	    [normalize] (source payload → table.Table)
//	         ↓
//	    [transform] (filter → sort → time series → pivot)
//	         ↓
//	    [export] / [stats] / [chart]
//
// [pipeline.Runner] ties the steps together; [tools.Registry] exposes its
// operations by name, and [server] serves the registry over stdio JSON-RPC
// and HTTP.
//
// # Quick Start
//
//	cfg, _ := config.Load("")
//	r := pipeline.NewRunner(cfg, nil)
//	res, err := r.ExportData(ctx, pipeline.ExportParams{
//	    Input: pipeline.Input{
//	        DataSource: "worldbank",
//	        DataParams: json.RawMessage(`{"countryCode":"JP","indicatorCode":"SP.POP.TOTL"}`),
//	    },
//	    Format: "csv",
//	})
//
// [integrations]: github.com/matzehuels/statbridge/pkg/integrations
// [table]: github.com/matzehuels/statbridge/pkg/table
// [normalize]: github.com/matzehuels/statbridge/pkg/normalize
// [transform]: github.com/matzehuels/statbridge/pkg/transform
// [stats]: github.com/matzehuels/statbridge/pkg/stats
// [chart]: github.com/matzehuels/statbridge/pkg/chart
// [export]: github.com/matzehuels/statbridge/pkg/export
// [pipeline]: github.com/matzehuels/statbridge/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/statbridge/pkg/pipeline#Runner
// [tools]: github.com/matzehuels/statbridge/pkg/tools
// [tools.Registry]: github.com/matzehuels/statbridge/pkg/tools#Registry
// [server]: github.com/matzehuels/statbridge/pkg/server
// [config]: github.com/matzehuels/statbridge/pkg/config
// [errors]: github.com/matzehuels/statbridge/pkg/errors
// [httputil]: github.com/matzehuels/statbridge/pkg/httputil
// [observability]: github.com/matzehuels/statbridge/pkg/observability
// [dump]: github.com/matzehuels/statbridge/pkg/dump
// [buildinfo]: github.com/matzehuels/statbridge/pkg/buildinfo
package pkg
