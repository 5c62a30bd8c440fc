package estat

import (
	"context"
	"net/url"
	"strconv"

	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/integrations"
)

// DefaultBaseURL is the e-Stat REST 3.0 endpoint.
const DefaultBaseURL = "https://api.e-stat.go.jp/rest/3.0/app/json"

// Default page sizes.
const (
	DefaultSearchLimit = 10
	DefaultDataLimit   = 100
)

// SearchParams selects tables for getStatsList.
type SearchParams struct {
	SearchWord string
	Limit      int
}

// DataParams selects observations for getStatsData.
type DataParams struct {
	StatsDataID   string
	Limit         int
	StartPosition int
}

// Client provides access to the e-Stat API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	appID   string
}

// NewClient creates an e-Stat client. appID is the registered application id
// sent with every request.
func NewClient(appID string, limits *httputil.RateLimits, policy httputil.Policy, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(integrations.SourceEStat, limits, policy, append([]integrations.Option{integrations.WithRedactedParams("appId")}, opts...)...),
		baseURL: DefaultBaseURL,
		appID:   appID,
	}
}

// WithBaseURL returns c pointed at a different endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = u
	}
	return c
}

// SearchTables lists statistics tables matching p.SearchWord.
//
// Returns an empty slice when the portal reports no matching tables.
func (c *Client) SearchTables(ctx context.Context, p SearchParams) ([]TableInfo, []byte, error) {
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	q := url.Values{
		"appId":      {c.appID},
		"searchWord": {p.SearchWord},
		"limit":      {strconv.Itoa(p.Limit)},
	}
	u := integrations.BuildURL(c.baseURL, q, "getStatsList")

	var resp statsListResponse
	body, err := c.GetJSON(ctx, u, &resp)
	if err != nil {
		return nil, body, err
	}
	if resp.GetStatsList == nil {
		return nil, body, c.Invalid(u, "missing GET_STATS_LIST envelope")
	}
	if err := c.checkResult(resp.GetStatsList.Result, u); err != nil {
		return nil, body, err
	}

	out := make([]TableInfo, 0, len(resp.GetStatsList.DatalistInf.TableInf))
	for _, w := range resp.GetStatsList.DatalistInf.TableInf {
		out = append(out, w.info())
	}
	return out, body, nil
}

// StatsData fetches the classifications and observations of one table.
func (c *Client) StatsData(ctx context.Context, p DataParams) (*StatsData, []byte, error) {
	if p.Limit <= 0 {
		p.Limit = DefaultDataLimit
	}
	q := url.Values{
		"appId":       {c.appID},
		"statsDataId": {p.StatsDataID},
		"limit":       {strconv.Itoa(p.Limit)},
	}
	if p.StartPosition > 0 {
		q.Set("startPosition", strconv.Itoa(p.StartPosition))
	}
	u := integrations.BuildURL(c.baseURL, q, "getStatsData")

	var resp statsDataResponse
	body, err := c.GetJSON(ctx, u, &resp)
	if err != nil {
		return nil, body, err
	}
	if resp.GetStatsData == nil {
		return nil, body, c.Invalid(u, "missing GET_STATS_DATA envelope")
	}
	if err := c.checkResult(resp.GetStatsData.Result, u); err != nil {
		return nil, body, err
	}

	sd := resp.GetStatsData.StatisticalData
	data := &StatsData{
		Table:   sd.TableInf.info(),
		Total:   int(sd.ResultInf.TotalNumber),
		From:    int(sd.ResultInf.FromNumber),
		To:      int(sd.ResultInf.ToNumber),
		NextKey: int(sd.ResultInf.NextKey),
	}
	if data.Table.ID == "" {
		data.Table.ID = p.StatsDataID
	}
	for _, co := range sd.ClassInf.ClassObj {
		data.Classes = append(data.Classes, co.class())
	}
	data.Observations = make([]Observation, 0, len(sd.DataInf.Value))
	for _, v := range sd.DataInf.Value {
		data.Observations = append(data.Observations, v.observation())
	}
	return data, body, nil
}

func (c *Client) checkResult(r result, u string) error {
	if r.Status < StatusError {
		return nil
	}
	e := errors.NewAPIError(c.Source(), "%s", r.ErrorMsg)
	e.Details.RequestURL = c.Redact(u)
	e.Details.RequestMethod = "GET"
	e.Details.StatusText = "STATUS " + strconv.Itoa(r.Status)
	return e
}
