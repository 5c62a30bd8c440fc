package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
)

// DefaultBaseURL is the Indicators API v2 endpoint.
const DefaultBaseURL = "https://api.worldbank.org/v2"

const (
	indicatorPageSize = 1000
	catalogPageSize   = 50
	countryPageSize   = 500
)

// IndicatorParams selects one indicator for one or more countries.
// CountryCode may be a ';'-separated list. Zero years leave the range open.
type IndicatorParams struct {
	CountryCode   string
	IndicatorCode string
	StartYear     int
	EndYear       int
}

// Client provides access to the World Bank Indicators API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a World Bank client.
func NewClient(limits *httputil.RateLimits, policy httputil.Policy, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(integrations.SourceWorldBank, limits, policy, opts...),
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

// Indicator fetches observations for p. Returns an empty slice when the API
// has no data for the query.
func (c *Client) Indicator(ctx context.Context, p IndicatorParams) ([]Point, []byte, error) {
	q := url.Values{
		"format":   {"json"},
		"per_page": {strconv.Itoa(indicatorPageSize)},
		"date":     {dateRange(p.StartYear, p.EndYear)},
	}
	base := c.baseURL + "/country/" + countryList(p.CountryCode)
	u := integrations.BuildURL(base, q, "indicator", p.IndicatorCode)

	var wire []pointWire
	body, err := c.fetch(ctx, u, &wire)
	if err != nil {
		return nil, body, err
	}
	out := make([]Point, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.point())
	}
	return out, body, nil
}

// SearchIndicators returns the first catalogue page filtered by a
// case-insensitive substring match on id or name. An empty search returns
// the page unfiltered.
func (c *Client) SearchIndicators(ctx context.Context, search string) ([]IndicatorInfo, []byte, error) {
	q := url.Values{
		"format":   {"json"},
		"per_page": {strconv.Itoa(catalogPageSize)},
	}
	u := integrations.BuildURL(c.baseURL, q, "indicator")

	var wire []indicatorWire
	body, err := c.fetch(ctx, u, &wire)
	if err != nil {
		return nil, body, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]IndicatorInfo, 0, len(wire))
	for _, w := range wire {
		if needle != "" &&
			!strings.Contains(strings.ToLower(w.ID), needle) &&
			!strings.Contains(strings.ToLower(w.Name), needle) {
			continue
		}
		out = append(out, IndicatorInfo(w))
	}
	return out, body, nil
}

// Countries lists the economies known to the API.
func (c *Client) Countries(ctx context.Context) ([]Country, []byte, error) {
	q := url.Values{
		"format":   {"json"},
		"per_page": {strconv.Itoa(countryPageSize)},
	}
	u := integrations.BuildURL(c.baseURL, q, "country")

	var wire []countryWire
	body, err := c.fetch(ctx, u, &wire)
	if err != nil {
		return nil, body, err
	}
	out := make([]Country, 0, len(wire))
	for _, w := range wire {
		out = append(out, Country{
			ID:          w.ID,
			ISO2Code:    w.ISO2Code,
			Name:        w.Name,
			Region:      strings.TrimSpace(w.Region.Value),
			IncomeLevel: w.IncomeLevel.Value,
			CapitalCity: w.CapitalCity,
		})
	}
	return out, body, nil
}

// fetch retrieves u, unwraps the [meta, data] envelope and decodes the data
// element into v. v is left untouched when the data element is absent.
func (c *Client) fetch(ctx context.Context, u string, v any) ([]byte, error) {
	body, err := c.GetBytes(ctx, u)
	if err != nil {
		return body, err
	}
	_, data, msg, err := decodeEnvelope(body)
	if err != nil {
		return body, c.Invalid(u, "%v", err)
	}
	if msg != "" {
		e := errors.NewAPIError(c.Source(), "%s", msg)
		e.Details.RequestURL = u
		e.Details.RequestMethod = "GET"
		e.Details.ResponseData = string(body)
		return body, e
	}
	if data == nil {
		return body, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return body, c.Invalid(u, "malformed data element: %v", err)
	}
	return body, nil
}

func dateRange(start, end int) string {
	switch {
	case start > 0 && end > 0:
		return fmt.Sprintf("%d:%d", start, end)
	case start > 0:
		return fmt.Sprintf("%d:%d", start, errors.MaxYear)
	case end > 0:
		return fmt.Sprintf("%d:%d", errors.MinYear, end)
	}
	return ""
}

// countryList escapes each code of a ';'-separated list, keeping the
// separators the API splits on.
func countryList(codes string) string {
	parts := strings.Split(codes, ";")
	for i, p := range parts {
		parts[i] = integrations.PathEscape(strings.TrimSpace(p))
	}
	return strings.Join(parts, ";")
}
