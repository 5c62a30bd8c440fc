// Package oecd provides an HTTP client for the OECD SDMX REST API
// (https://sdmx.oecd.org/public/rest).
//
// # Usage
//
//	client := oecd.NewClient(limits, httputil.DefaultPolicy())
//	msg, err := client.Data(ctx, oecd.DataParams{
//	    DatasetID:   "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA,1.0",
//	    Filter:      "Q.JPN....",
//	    StartPeriod: "2020-Q1",
//	})
//
// The dataset id and filter are URL-path-escaped; the filter defaults to
// "all". Period bounds travel as startPeriod and endPeriod.
//
// # Messages
//
// [Message] keeps the raw SDMX-JSON body for pass-through and a decoded view
// of its data sets and structure. Both SDMX-JSON 1.0 (top-level dataSets and
// structure) and 2.0 (wrapped in "data") layouts are accepted, with
// observations keyed either per series or, with dimensionAtObservation set to
// AllDimensions, directly on the data set.
package oecd
