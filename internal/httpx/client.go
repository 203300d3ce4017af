// Package httpx wraps net/http into the narrow transport capability the jdb
// client needs: perform one GET with query parameters and a deadline, follow
// redirects, and hand back status, headers and the fully read body. It issues
// exactly one request per call; retry policy belongs to callers.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The replacement must
// keep redirect following enabled; the jdb server answers some side-effecting
// operations with redirects.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithRateLimit paces outgoing requests with a token bucket. Zero or negative
// rps leaves pacing disabled, which is the default.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client performs single-shot HTTP GETs. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	limiter    *rate.Limiter
}

// Request describes a single outbound call.
type Request struct {
	// URL is the absolute request URL before query parameters.
	URL string
	// Query parameters are merged into any already present on URL.
	Query url.Values
	// Header entries are added after the client's default headers.
	Header http.Header
	// Timeout, when positive, bounds the whole call: limiter waits,
	// connection establishment and the body read.
	Timeout time.Duration
}

// Response is a fully drained HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a transport Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one GET and returns the drained response. Non-2xx statuses are
// reported as *HTTPError carrying the status, headers and raw body; transport
// failures (dial, timeout, canceled context) are returned as-is.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	body, err := ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpx: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header.Clone(),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func buildURL(raw string, q url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("httpx: invalid request URL: %w", err)
	}
	if len(q) > 0 {
		merged := u.Query()
		for k, values := range q {
			for _, v := range values {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
