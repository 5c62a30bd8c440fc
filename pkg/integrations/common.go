package integrations

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	httpTimeout = 30 * time.Second

	// maxBodySize caps how much of an upstream response is read.
	maxBodySize = 64 << 20
)

// Source ids. These name the rate-limit bucket and appear in error payloads.
const (
	SourceEStat     = "estat"
	SourceWorldBank = "worldbank"
	SourceOECD      = "oecd"
	SourceEurostat  = "eurostat"
)

// Sources lists every supported source id.
var Sources = []string{SourceEStat, SourceWorldBank, SourceOECD, SourceEurostat}

// sourceAliases maps accepted spellings to source ids.
var sourceAliases = map[string]string{
	"estat":          SourceEStat,
	"e-stat":         SourceEStat,
	"stats-portal":   SourceEStat,
	"worldbank":      SourceWorldBank,
	"world-bank":     SourceWorldBank,
	"indicator-bank": SourceWorldBank,
	"oecd":           SourceOECD,
	"sdmx":           SourceOECD,
	"eurostat":       SourceEurostat,
	"jsonstat":       SourceEurostat,
	"json-stat":      SourceEurostat,
}

// ResolveSource returns the source id for name (case-insensitive), accepting
// the generic aliases used by tool arguments.
func ResolveSource(name string) (string, bool) {
	id, ok := sourceAliases[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// SourceAliases returns every accepted dataSource spelling.
func SourceAliases() []string {
	out := make([]string, 0, len(sourceAliases))
	for k := range sourceAliases {
		out = append(out, k)
	}
	return out
}

// NewHTTPClient creates an HTTP client with a standard timeout for source requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// PathEscape percent-encodes s for use as a single URL path segment.
// This is a convenience wrapper around [url.PathEscape].
func PathEscape(s string) string { return url.PathEscape(s) }

// BuildURL joins base and path segments and appends query. Empty query
// values are dropped.
func BuildURL(base string, query url.Values, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	clean := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) > 0 {
		b.WriteByte('?')
		b.WriteString(clean.Encode())
	}
	return b.String()
}

// OneOrMany decodes a JSON value that upstreams emit either as a single
// object or as an array of objects.
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*m = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*m = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = OneOrMany[T]{one}
	return nil
}
