// Package tools exposes the pipeline operations as named tools with JSON
// Schema inputs.
//
// A [Registry] is the single dispatch table used by the stdio and HTTP
// shells and by the CLI's tools command. Arguments arrive as raw JSON,
// are decoded strictly (unknown fields are rejected) and are validated by
// the pipeline before any upstream request is made.
//
//	reg := tools.NewRegistry(runner)
//	out, err := reg.Call(ctx, "get-indicator-data",
//	    json.RawMessage(`{"countryCode":"JP","indicatorCode":"SP.POP.TOTL"}`))
//
// Failures are classified errors; [errors.ToPayload] turns them into the
// wire payload.
//
// [errors.ToPayload]: github.com/matzehuels/statbridge/pkg/errors.ToPayload
package tools
