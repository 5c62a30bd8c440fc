package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/matzehuels/statbridge/pkg/buildinfo"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/httputil"
	"github.com/matzehuels/statbridge/pkg/observability"
)

// Client provides shared HTTP functionality for all statistics source clients.
// It handles rate-limit admission, retry logic, status classification and
// common request headers.
//
// A call path is always: limiter admission → retry policy → HTTP GET.
// Rate-limit admission happens once per call, before the first attempt.
type Client struct {
	source  string
	http    *http.Client
	limits  *httputil.RateLimits
	policy  httputil.Policy
	headers map[string]string
	hooks   observability.HTTPHooks
	redact  []string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithHeaders adds default headers applied to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithHooks sets the HTTP observability hooks.
func WithHooks(h observability.HTTPHooks) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithRedactedParams masks the named query parameters in URLs passed to hooks
// and error details.
func WithRedactedParams(names ...string) Option {
	return func(c *Client) { c.redact = append(c.redact, names...) }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a Client for source. The rate-limit registry is shared
// between all clients of a process; a nil registry disables limiting.
func NewClient(source string, limits *httputil.RateLimits, policy httputil.Policy, opts ...Option) *Client {
	if limits == nil {
		limits = httputil.NewRateLimits(map[string]httputil.Limit{source: {}})
	}
	c := &Client{
		source:  source,
		http:    NewHTTPClient(),
		limits:  limits,
		policy:  policy,
		headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
		hooks:   observability.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the source id used for rate limiting and error attribution.
func (c *Client) Source() string { return c.source }

// GetBytes performs a rate-limited, retried HTTP GET and returns the body.
// Failures are *errors.APIError values attributed to the client's source.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.GetBytesWithHeaders(ctx, url, nil)
}

// GetBytesWithHeaders is GetBytes with additional headers merged over the
// client defaults.
func (c *Client) GetBytesWithHeaders(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	start := time.Now()
	if err := c.limits.Wait(ctx, c.source); err != nil {
		return nil, err
	}
	c.hooks.OnThrottle(ctx, c.source, time.Since(start))

	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.hooks.OnRetry(ctx, c.source, attempt, delay, err)
	}
	return httputil.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, url, headers)
	})
}

// GetJSON performs GetBytes and decodes the body into v. A body that does not
// decode is reported as an invalid response and is not retried.
// The raw body is returned for callers that pass the payload through.
func (c *Client) GetJSON(ctx context.Context, url string, v any) ([]byte, error) {
	return c.GetJSONWithHeaders(ctx, url, nil, v)
}

// GetJSONWithHeaders is GetJSON with additional request headers.
func (c *Client) GetJSONWithHeaders(ctx context.Context, url string, headers map[string]string, v any) ([]byte, error) {
	body, err := c.GetBytesWithHeaders(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return body, errors.InvalidResponse(c.source, c.Redact(url), err)
	}
	return body, nil
}

// Invalid reports a decoded payload whose shape is wrong.
func (c *Client) Invalid(url string, format string, args ...any) error {
	return errors.InvalidResponse(c.source, c.Redact(url), fmt.Errorf(format, args...))
}

// Redact masks credential query parameters in raw.
func (c *Client) Redact(raw string) string {
	if len(c.redact) == 0 {
		return raw
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, name := range c.redact {
		if q.Has(name) {
			q.Set(name, "***")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewAPIError(c.source, "build request: %v", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	shown := c.Redact(url)
	c.hooks.OnRequest(ctx, c.source, req.Method, shown)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.hooks.OnError(ctx, c.source, req.Method, shown, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(errors.TransportError(c.source, req.Method, shown, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.hooks.OnResponse(ctx, c.source, req.Method, shown, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, httputil.Retryable(errors.TransportError(c.source, req.Method, shown, err))
	}
	if err := checkStatus(c.source, req.Method, shown, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkStatus(source, method, url string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return errors.StatusError(source, method, url, code, body)
}
