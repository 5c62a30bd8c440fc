package eurostat

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
)

// DefaultBaseURL is the dissemination API statistics endpoint.
const DefaultBaseURL = "https://ec.europa.eu/eurostat/api/dissemination/statistics/1.0"

// DataParams selects one dataset. Each filter key is a dimension id; a key
// with several values is sent as repeated query parameters.
type DataParams struct {
	DatasetCode string
	Filters     map[string][]string
	Lang        string
}

// Client provides access to the Eurostat dissemination API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Eurostat client.
func NewClient(limits *httputil.RateLimits, policy httputil.Policy, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(integrations.SourceEurostat, limits, policy, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL returns c pointed at a different endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = u
	}
	return c
}

// Data fetches a JSON-stat dataset.
func (c *Client) Data(ctx context.Context, p DataParams) (*Dataset, error) {
	u := integrations.BuildURL(c.baseURL, query(p), "data", p.DatasetCode)

	body, err := c.GetBytes(ctx, u)
	if err != nil {
		return nil, err
	}

	var pr topLevel
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, c.Invalid(u, "body is not a JSON object: %v", err)
	}
	src := body
	switch {
	case pr.Dimension != nil:
	case pr.Dataset != nil:
		src = pr.Dataset
	default:
		return nil, c.Invalid(u, "missing dataset or dimension key")
	}

	var w datasetWire
	if err := json.Unmarshal(src, &w); err != nil {
		return nil, c.Invalid(u, "malformed dataset: %v", err)
	}
	ds, err := w.dataset()
	if err != nil {
		return nil, c.Invalid(u, "malformed dataset: %v", err)
	}
	ds.Raw = json.RawMessage(body)
	return ds, nil
}

func query(p DataParams) url.Values {
	lang := strings.ToUpper(strings.TrimSpace(p.Lang))
	if lang == "" {
		lang = DefaultLang
	}
	q := url.Values{
		"format": {"JSON"},
		"lang":   {lang},
	}
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range p.Filters[k] {
			q.Add(k, v)
		}
	}
	return q
}
