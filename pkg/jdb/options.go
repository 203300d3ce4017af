package jdb

import (
	"net/http"
	"net/url"
	"time"

	"github.com/JDrit/jdb-jepsen/internal/httpx"
)

// DefaultTimeout bounds each request when neither the handle nor the call
// overrides it.
const DefaultTimeout = 1000 * time.Millisecond

// CallOptions tunes a single operation. A nil *CallOptions is valid and means
// defaults throughout; the client never retains it across calls.
type CallOptions struct {
	// Timeout, when positive, replaces the handle default for this call. The
	// resolved timeout bounds the whole round trip, connection establishment
	// and body read included.
	Timeout time.Duration
	// Params are forwarded verbatim as extra query parameters. Parameters the
	// operation itself sets (client, id, key, value, current, new) win over
	// entries here.
	Params url.Values
	// RootKey is reserved for harness bookkeeping and is never forwarded.
	RootKey string
}

type settings struct {
	timeout  time.Duration
	logger   Logger
	metrics  *MetricsCollector
	httpOpts []httpx.Option
}

// Option configures a Client at construction time.
type Option func(*settings)

// WithTimeout replaces the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying net/http client, e.g. to supply a
// custom transport. The replacement must keep redirect following enabled.
func WithHTTPClient(h *http.Client) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithHTTPClient(h))
	}
}

// WithRateLimit paces outgoing requests with a token bucket. Pacing is off by
// default; zero or negative rps leaves it off.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithRateLimit(rps, burst))
	}
}

// WithLogger routes dispatch and completion diagnostics through l. Without a
// logger the client produces no log output at all.
func WithLogger(l Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithSimpleLogger enables diagnostics with a plain console logger.
func WithSimpleLogger() Option {
	return func(s *settings) { s.logger = NewSimpleLogger() }
}

// WithMetricsCollector attaches a Prometheus collector to the handle.
func WithMetricsCollector(mc *MetricsCollector) Option {
	return func(s *settings) { s.metrics = mc }
}

func newSettings(opts []Option) *settings {
	s := &settings{timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// mergeParams combines caller extras with the fixed parameters of an
// operation; fixed entries replace extras of the same name.
func mergeParams(opts *CallOptions, fixed url.Values) url.Values {
	merged := url.Values{}
	if opts != nil {
		for k, values := range opts.Params {
			for _, v := range values {
				merged.Add(k, v)
			}
		}
	}
	for k, values := range fixed {
		merged.Del(k)
		for _, v := range values {
			merged.Add(k, v)
		}
	}
	return merged
}

func (c *Client) resolveTimeout(opts *CallOptions) time.Duration {
	if opts != nil && opts.Timeout > 0 {
		return opts.Timeout
	}
	return c.timeout
}
