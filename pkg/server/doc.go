// Package server exposes the tool registry over two transports.
//
// [Stdio] speaks newline-delimited JSON-RPC 2.0 on a reader/writer pair, the
// framing used by MCP hosts that spawn the server as a subprocess. It
// answers initialize, ping, tools/list, tools/call, resources/list and
// resources/read.
//
// [HTTP] is a chi router for callers that prefer plain HTTP:
//
//	GET  /healthz
//	GET  /tools
//	POST /tools/{name}
//	GET  /sources
//
// Both transports return tool failures as the discriminated payload built
// by [errors.ToPayload]; stdio wraps it in an isError result, HTTP maps it
// to a status code.
//
// [errors.ToPayload]: github.com/matzehuels/statbridge/pkg/errors.ToPayload
package server
