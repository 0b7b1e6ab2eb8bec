// Package source talks to the remote collection endpoint backing the table.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tablo/internal/model"
	"tablo/internal/query"

	"github.com/go-resty/resty/v2"
)

// Fetcher loads one page of the collection for the given options.
// It is implemented by *Client and can be faked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, opts query.Options) (model.Page, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// TotalCountHeader carries the collection size when the endpoint reports it.
const TotalCountHeader = "X-Total-Count"

const (
	defaultUserAgent = "tablo/0.1"
	defaultTimeout   = 10 * time.Second
)

// Request parameter names understood by the endpoint.
const (
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSearch = "search"
	ParamSortBy = "sortBy"
	ParamOrder  = "order"
)

// ErrMalformedResponse is returned when the body is not a JSON array of
// objects or a recognised envelope.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.URL, e.Code)
}

// Client issues GET requests against the collection endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

// NewClient builds a Client for endpoint. A missing scheme defaults to http.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		http: resty.New().
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", defaultUserAgent),
		endpoint: u.String(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the normalised endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RequestParams maps options to the endpoint's query parameters. Every
// parameter is sent, empty or not.
func RequestParams(opts query.Options) map[string]string {
	return map[string]string{
		ParamPage:   strconv.Itoa(opts.Page),
		ParamLimit:  strconv.Itoa(int(opts.ItemsPerPage)),
		ParamSearch: opts.Search,
		ParamSortBy: opts.SortBy,
		ParamOrder:  string(opts.SortOrder),
	}
}

// Fetch retrieves the page described by opts. The X-Total-Count header,
// when present, takes precedence over a total found in the body.
func (c *Client) Fetch(ctx context.Context, opts query.Options) (model.Page, error) {
	if c == nil {
		return model.Page{}, fmt.Errorf("client is nil")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(RequestParams(opts)).
		Get(c.endpoint)
	if err != nil {
		return model.Page{}, fmt.Errorf("execute request: %w", err)
	}
	if !resp.IsSuccess() {
		return model.Page{}, &StatusError{Code: resp.StatusCode(), URL: c.endpoint}
	}

	page, err := decodePage(resp.Body())
	if err != nil {
		return model.Page{}, err
	}
	if total, ok := parseTotal(resp.Header().Get(TotalCountHeader)); ok {
		page.Total = total
		page.TotalKnown = true
	}
	return page, nil
}

func parseTotal(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
