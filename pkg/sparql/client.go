package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotJSON is returned when JSON results were requested but the endpoint
// answered with something that does not decode as JSON.
var ErrNotJSON = errors.New("endpoint response is not valid JSON")

// StatusError reports an endpoint response with a status code >= 400.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Querier is anything that can serialize itself to a SPARQL string.
// *QueryBuilder satisfies it.
type Querier interface {
	Build() string
}

// Endpoint describes how queries are sent to a SPARQL HTTP endpoint.
type Endpoint struct {
	// BaseURL is the endpoint URL. Existing query parameters are kept.
	BaseURL string `yaml:"baseUrl"`
	// QueryParam is the parameter carrying the query.
	QueryParam string `yaml:"queryParam,omitempty"`
	// FormatParam is the parameter carrying the result format.
	FormatParam string `yaml:"formatParam,omitempty"`
	// Format is the requested result format. "json" responses are decoded.
	Format string `yaml:"format,omitempty"`
	// Method is GET or POST.
	Method string `yaml:"method,omitempty"`
	// UpdateParam is the parameter carrying SPARQL Update requests.
	UpdateParam string `yaml:"updateParam,omitempty"`
}

// WithDefaults fills the unset fields of e.
func (e Endpoint) WithDefaults() Endpoint {
	if e.QueryParam == "" {
		e.QueryParam = "query"
	}
	if e.FormatParam == "" {
		e.FormatParam = "format"
	}
	if e.Format == "" {
		e.Format = "json"
	}
	if e.Method == "" {
		e.Method = http.MethodGet
	}
	e.Method = strings.ToUpper(e.Method)
	if e.UpdateParam == "" {
		e.UpdateParam = "update"
	}
	return e
}

// Response is the raw answer of an endpoint.
type Response struct {
	Format      string
	StatusCode  int
	ContentType string
	Body        []byte
	// Data holds the decoded body when Format is "json".
	Data any
}

func (r *Response) String() string {
	return string(r.Body)
}

// Client is a thin HTTP client for a SPARQL endpoint.
type Client struct {
	Endpoint   Endpoint
	HTTPClient *http.Client
}

// NewClient creates a Client for the given endpoint, filling defaults.
func NewClient(e Endpoint) *Client {
	return &Client{
		Endpoint:   e.WithDefaults(),
		HTTPClient: &http.Client{},
	}
}

// Launch builds q and sends it as a query.
func (c *Client) Launch(ctx context.Context, q Querier) (*Response, error) {
	return c.Query(ctx, q.Build())
}

// Query sends a SPARQL query using the configured method.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	params := url.Values{}
	params.Set(c.Endpoint.QueryParam, query)
	params.Set(c.Endpoint.FormatParam, c.Endpoint.Format)

	return c.do(ctx, c.Endpoint.Method, params, c.Endpoint.Format)
}

// Update posts a SPARQL Update request. The body is only decoded when the
// endpoint labels it as JSON.
func (c *Client) Update(ctx context.Context, update string) (*Response, error) {
	params := url.Values{}
	params.Set(c.Endpoint.UpdateParam, update)

	return c.do(ctx, http.MethodPost, params, "")
}

func (c *Client) do(ctx context.Context, method string, params url.Values, format string) (*Response, error) {
	req, err := c.newRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}

	slog.Debug("Sending SPARQL request", "method", req.Method, "url", c.Endpoint.BaseURL)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to %s: %w", c.Endpoint.BaseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response from %s: %w", c.Endpoint.BaseURL, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	r := &Response{
		Format:      format,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}

	if format == "json" || (format == "" && strings.Contains(r.ContentType, "json") && len(body) > 0) {
		if err := json.Unmarshal(body, &r.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
		}
	}

	return r, nil
}

func (c *Client) newRequest(ctx context.Context, method string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(c.Endpoint.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL %q: %w", c.Endpoint.BaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint URL %q: missing scheme or host", c.Endpoint.BaseURL)
	}

	if method == http.MethodGet {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("error building SPARQL request: %w", err)
		}
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error building SPARQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	return req, nil
}
