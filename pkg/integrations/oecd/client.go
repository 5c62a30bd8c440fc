package oecd

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
)

// DefaultBaseURL is the public SDMX REST endpoint.
const DefaultBaseURL = "https://sdmx.oecd.org/public/rest"

// DefaultFilter selects every series of a dataset.
const DefaultFilter = "all"

const acceptSDMXJSON = "application/vnd.sdmx.data+json;version=1.0.0-wd"

// DataParams selects data from one dataflow.
type DataParams struct {
	DatasetID   string
	Filter      string
	StartPeriod string
	EndPeriod   string
}

// Client provides access to the OECD SDMX API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an OECD client.
func NewClient(limits *httputil.RateLimits, policy httputil.Policy, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(integrations.SourceOECD, limits, policy, opts...),
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

// Data fetches an SDMX-JSON data message. The body must carry a dataSets
// array, either at the top level or under "data".
func (c *Client) Data(ctx context.Context, p DataParams) (*Message, error) {
	filter := p.Filter
	if filter == "" {
		filter = DefaultFilter
	}
	q := url.Values{
		"startPeriod":            {p.StartPeriod},
		"endPeriod":              {p.EndPeriod},
		"dimensionAtObservation": {"AllDimensions"},
		"format":                 {"jsondata"},
	}
	u := integrations.BuildURL(c.baseURL, q, "data", p.DatasetID, filter)

	var env envelope
	body, err := c.GetJSONWithHeaders(ctx, u, map[string]string{"Accept": acceptSDMXJSON}, &env)
	if err != nil {
		return nil, err
	}
	msg, ok := env.message()
	if !ok {
		return nil, c.Invalid(u, "missing dataSets")
	}
	if err := msg.checkKeys(); err != nil {
		return nil, c.Invalid(u, "%v", err)
	}
	msg.Raw = json.RawMessage(body)
	return msg, nil
}
