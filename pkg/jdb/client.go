package jdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JDrit/jdb-jepsen/internal/httpx"
)

// Operation names understood by the jdb server.
const (
	opGet    = "get"
	opPut    = "put"
	opDelete = "delete"
	opCAS    = "cas"
	opAppend = "append"
)

// Backend performs one jdb operation. params is the complete outgoing query,
// fixed operation parameters already merged in; opts carries the resolved
// per-call timeout. Implementations return decoded responses and normalized
// errors, exactly as the HTTP pipeline would.
type Backend interface {
	Do(ctx context.Context, op string, params url.Values, opts *CallOptions) (*Response, error)
}

// Client is a handle onto one jdb endpoint on behalf of one logical client
// identity. It is safe for concurrent use; its only mutable state is an
// atomic request counter that is never shared between handles and never
// reset.
type Client struct {
	endpoint string
	clientID string
	timeout  time.Duration
	backend  Backend
	logger   Logger
	metrics  *MetricsCollector

	reqID atomic.Int64
}

// Connect creates a Client against an HTTP endpoint. The endpoint must be an
// absolute http or https URL; trailing slashes are trimmed. An empty clientID
// is replaced with a fresh UUID. Connect performs no network I/O.
func Connect(endpoint, clientID string, opts ...Option) (*Client, error) {
	base, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := newSettings(opts)
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return &Client{
		endpoint: base,
		clientID: clientID,
		timeout:  cfg.timeout,
		backend: &httpBackend{
			endpoint: base,
			client:   httpx.New(cfg.httpOpts...),
		},
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}, nil
}

// NewWithBackend creates a Client over a custom Backend (mocks, tests). No
// endpoint validation is performed; BuildURL on such a handle joins against
// an empty endpoint.
func NewWithBackend(clientID string, b Backend, opts ...Option) *Client {
	cfg := newSettings(opts)
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return &Client{
		clientID: clientID,
		timeout:  cfg.timeout,
		backend:  b,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
	}
}

// ClientID reports the identity the handle stamps on every request.
func (c *Client) ClientID() string { return c.clientID }

// Endpoint reports the normalized endpoint the handle was connected to.
func (c *Client) Endpoint() string { return c.endpoint }

// NextRequestID allocates the next request id: an atomic increment-and-get.
// Concurrent callers never observe duplicates or gaps; N calls hand out
// exactly 1 through N. Operations call it automatically before dispatch.
func (c *Client) NextRequestID() int64 {
	return c.reqID.Add(1)
}

// Get fetches the value stored under key.
func (c *Client) Get(ctx context.Context, key string, opts *CallOptions) (string, error) {
	if err := requireKey(key); err != nil {
		return "", err
	}
	resp, err := c.do(ctx, opGet, url.Values{"key": {key}}, opts)
	if err != nil {
		return "", err
	}
	return extractValue(resp)
}

// Put stores value under key, creating or overwriting it.
func (c *Client) Put(ctx context.Context, key, value string, opts *CallOptions) (*Response, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	return c.do(ctx, opPut, url.Values{"key": {key}, "value": {value}}, opts)
}

// Delete removes key from the store.
func (c *Client) Delete(ctx context.Context, key string, opts *CallOptions) (*Response, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	return c.do(ctx, opDelete, url.Values{"key": {key}}, opts)
}

// CAS atomically replaces the value under key with next if the stored value
// equals current, reporting whether the swap happened. It issues exactly one
// conditional request; the client never loops.
func (c *Client) CAS(ctx context.Context, key, current, next string, opts *CallOptions) (bool, error) {
	if err := requireKey(key); err != nil {
		return false, err
	}
	resp, err := c.do(ctx, opCAS, url.Values{"key": {key}, "current": {current}, "new": {next}}, opts)
	if err != nil {
		return false, err
	}
	return extractReplaced(resp)
}

// Append atomically concatenates value onto the value under key, creating the
// key if absent.
func (c *Client) Append(ctx context.Context, key, value string, opts *CallOptions) (*Response, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	return c.do(ctx, opAppend, url.Values{"key": {key}, "value": {value}}, opts)
}

// do stamps identity and request id onto the outgoing query, dispatches one
// synchronous exchange through the backend and records diagnostics. Errors
// come back already normalized; nothing is caught, retried or reinterpreted
// here.
func (c *Client) do(ctx context.Context, op string, fixed url.Values, opts *CallOptions) (*Response, error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("jdb: client is nil")
	}

	id := c.NextRequestID()
	params := mergeParams(opts, fixed)
	params.Set("client", c.clientID)
	params.Set("id", strconv.FormatInt(id, 10))
	call := &CallOptions{Timeout: c.resolveTimeout(opts)}

	if c.logger != nil {
		c.logger.Debug("dispatching request", "op", op, "id", id, "client", c.clientID)
	}
	c.metrics.RecordCallStart(op)
	start := time.Now()

	resp, err := c.backend.Do(ctx, op, params, call)

	duration := time.Since(start)
	c.metrics.RecordCallEnd(op)

	if err != nil {
		if status, ok := Status(err); ok {
			c.metrics.RecordCall(op, status, duration)
		}
		c.metrics.RecordError(op, errorKind(err))
		if c.logger != nil {
			c.logger.Debug("request failed", "op", op, "id", id, "error", err)
		}
		return nil, err
	}

	c.metrics.RecordCall(op, resp.Status, duration)
	if c.logger != nil {
		c.logger.Debug("request completed", "op", op, "id", id, "status", resp.Status, "duration", duration)
	}
	return resp, nil
}

// httpBackend is the real pipeline: URL build, options translation, one GET
// through the transport, envelope decode and error normalization.
type httpBackend struct {
	endpoint string
	client   *httpx.Client
}

func (b *httpBackend) Do(ctx context.Context, op string, params url.Values, opts *CallOptions) (*Response, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("jdb: http backend not configured")
	}
	var timeout time.Duration
	if opts != nil {
		timeout = opts.Timeout
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		URL:     JoinURL(b.endpoint, op),
		Query:   params,
		Timeout: timeout,
	})
	if err != nil {
		return nil, normalizeRemote(err)
	}
	return decodeResponse(resp.Body, resp.StatusCode)
}

func requireKey(key string) error {
	if key == "" {
		return fmt.Errorf("jdb: key is required")
	}
	return nil
}

func normalizeEndpoint(endpoint string) (string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return "", fmt.Errorf("jdb: endpoint is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("jdb: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("jdb: endpoint must be an absolute http or https URL, got %q", endpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("jdb: endpoint %q has no host", endpoint)
	}
	return strings.TrimRight(trimmed, "/"), nil
}
