package jdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JDrit/jdb-jepsen/internal/devseed"
	"github.com/JDrit/jdb-jepsen/pkg/jdb/mock"
)

const (
	envMode     = "JDB_RUNTIME_MODE"
	envAPIURL   = "JDB_API_URL"
	envClientID = "JDB_CLIENT_ID"
	envTimeout  = "JDB_TIMEOUT_MS"
	envMockSeed = "JDB_MOCK_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client from JDB_* environment variables and
// returns the resolved mode ("http" or "mock"). JDB_RUNTIME_MODE selects
// auto, http or mock; auto picks http when JDB_API_URL is set and mock
// otherwise. JDB_CLIENT_ID and JDB_TIMEOUT_MS feed the corresponding
// constructor arguments, and JDB_MOCK_SEED points mock mode at a devseed
// file. Options are applied after the environment, so they win.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	endpoint := strings.TrimSpace(os.Getenv(envAPIURL))
	clientID := strings.TrimSpace(os.Getenv(envClientID))

	if raw := strings.TrimSpace(os.Getenv(envTimeout)); raw != "" {
		ms, parseErr := strconv.Atoi(raw)
		if parseErr != nil || ms <= 0 {
			return nil, "", fmt.Errorf("jdb: invalid %s value %q", envTimeout, raw)
		}
		opts = append([]Option{WithTimeout(time.Duration(ms) * time.Millisecond)}, opts...)
	}

	switch mode {
	case "", modeAuto:
		if endpoint != "" {
			return newHTTPFromEnv(endpoint, clientID, opts)
		}
		return newMockFromEnv(clientID, opts)
	case modeHTTP:
		if endpoint == "" {
			return nil, "", fmt.Errorf("jdb: HTTP mode requires %s", envAPIURL)
		}
		return newHTTPFromEnv(endpoint, clientID, opts)
	case modeMock:
		return newMockFromEnv(clientID, opts)
	default:
		return nil, "", fmt.Errorf("jdb: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPFromEnv(endpoint, clientID string, opts []Option) (*Client, string, error) {
	client, err := Connect(endpoint, clientID, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("jdb: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newMockFromEnv(clientID string, opts []Option) (*Client, string, error) {
	store := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("jdb: load mock seed: %w", err)
		}
		if err := store.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("jdb: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(clientID, &mockBackend{store: store}, opts...), modeMock, nil
}

// mockBackend serves Backend.Do from an in-memory store, fabricating replies
// in the server's wire shapes so mock mode exercises the same extraction
// paths as HTTP mode: get answers with the double-encoded {"value": ...}
// document, misses surface as 404 RemoteErrors, cas answers with a
// {"replaced": bool} object.
type mockBackend struct {
	store *mock.Mock
}

func (b *mockBackend) Do(ctx context.Context, op string, params url.Values, opts *CallOptions) (*Response, error) {
	if b == nil || b.store == nil {
		return nil, fmt.Errorf("jdb: mock backend not configured")
	}
	key := params.Get("key")
	switch op {
	case opGet:
		value, ok, err := b.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFound()
		}
		doc, err := json.Marshal(map[string]string{"value": value})
		if err != nil {
			return nil, fmt.Errorf("jdb: encode mock get reply: %w", err)
		}
		return &Response{Value: string(doc), Status: http.StatusOK}, nil
	case opPut:
		if err := b.store.Put(ctx, key, params.Get("value")); err != nil {
			return nil, err
		}
		return okResponse(), nil
	case opDelete:
		existed, err := b.store.Delete(ctx, key)
		if err != nil {
			return nil, err
		}
		if !existed {
			return nil, notFound()
		}
		return okResponse(), nil
	case opCAS:
		replaced, err := b.store.CAS(ctx, key, params.Get("current"), params.Get("new"))
		if err != nil {
			return nil, err
		}
		return &Response{Value: map[string]any{"replaced": replaced}, Status: http.StatusOK}, nil
	case opAppend:
		if err := b.store.Append(ctx, key, params.Get("value")); err != nil {
			return nil, err
		}
		return okResponse(), nil
	default:
		return nil, fmt.Errorf("jdb: mock backend does not support operation %q", op)
	}
}

func okResponse() *Response {
	return &Response{Value: map[string]any{"ok": true}, Status: http.StatusOK}
}

func notFound() *RemoteError {
	return &RemoteError{
		Status: http.StatusNotFound,
		Fields: map[string]any{"error": "no such key"},
	}
}
