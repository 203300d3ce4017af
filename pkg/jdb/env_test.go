package jdb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/JDrit/jdb-jepsen/pkg/jdb"
)

func clearJDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JDB_RUNTIME_MODE", "JDB_API_URL", "JDB_CLIENT_ID", "JDB_TIMEOUT_MS", "JDB_MOCK_SEED"} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnvHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, _ := json.Marshal(map[string]string{"value": "from-http"})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(string(doc))
	}))
	defer srv.Close()

	clearJDBEnv(t)
	t.Setenv("JDB_API_URL", srv.URL)
	t.Setenv("JDB_CLIENT_ID", "env-client")

	client, mode, err := jdb.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "http" {
		t.Fatalf("expected http mode, got %q", mode)
	}
	if client.ClientID() != "env-client" {
		t.Fatalf("client id not taken from env: %q", client.ClientID())
	}

	got, err := client.Get(context.Background(), "k", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "from-http" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestNewFromEnvAutoFallsBackToMock(t *testing.T) {
	clearJDBEnv(t)

	client, mode, err := jdb.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "mock" {
		t.Fatalf("expected mock mode, got %q", mode)
	}

	ctx := context.Background()
	if _, err := client.Put(ctx, "k", "v", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := client.Get(ctx, "k", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestNewFromEnvMockSemantics(t *testing.T) {
	clearJDBEnv(t)
	t.Setenv("JDB_RUNTIME_MODE", "mock")

	client, mode, err := jdb.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "mock" {
		t.Fatalf("expected mock mode, got %q", mode)
	}
	ctx := context.Background()

	// Misses surface exactly like the HTTP pipeline: 404 RemoteError.
	_, err = client.Get(ctx, "missing", nil)
	if !jdb.IsNotFound(err) {
		t.Fatalf("expected not-found from mock, got %v", err)
	}

	if _, err := client.Put(ctx, "counter", "1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	replaced, err := client.CAS(ctx, "counter", "1", "2", nil)
	if err != nil {
		t.Fatalf("CAS: %v", err)
	}
	if !replaced {
		t.Fatalf("expected CAS to replace")
	}
	if replaced, _ := client.CAS(ctx, "counter", "1", "3", nil); replaced {
		t.Fatalf("expected mismatched CAS to report false")
	}

	if _, err := client.Append(ctx, "counter", "0", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := client.Get(ctx, "counter", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "20" {
		t.Fatalf("unexpected value after CAS+Append: %q", got)
	}

	if _, err := client.Delete(ctx, "counter", nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := client.Delete(ctx, "counter", nil); !jdb.IsNotFound(err) {
		t.Fatalf("expected not-found deleting twice, got %v", err)
	}
}

func TestNewFromEnvMockSeed(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"key":"greeting","value":"hello"}]`
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	clearJDBEnv(t)
	t.Setenv("JDB_RUNTIME_MODE", "mock")
	t.Setenv("JDB_MOCK_SEED", seedPath)

	client, _, err := jdb.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	got, err := client.Get(context.Background(), "greeting", nil)
	if err != nil {
		t.Fatalf("Get seeded key: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected seeded value: %q", got)
	}
}

func TestNewFromEnvHTTPModeRequiresURL(t *testing.T) {
	clearJDBEnv(t)
	t.Setenv("JDB_RUNTIME_MODE", "http")

	if _, _, err := jdb.NewFromEnv(); err == nil {
		t.Fatalf("expected error for http mode without JDB_API_URL")
	}
}

func TestNewFromEnvRejectsUnknownMode(t *testing.T) {
	clearJDBEnv(t)
	t.Setenv("JDB_RUNTIME_MODE", "quantum")

	if _, _, err := jdb.NewFromEnv(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestNewFromEnvRejectsBadTimeout(t *testing.T) {
	clearJDBEnv(t)
	t.Setenv("JDB_RUNTIME_MODE", "mock")

	for _, raw := range []string{"abc", "-5", "0"} {
		t.Setenv("JDB_TIMEOUT_MS", raw)
		if _, _, err := jdb.NewFromEnv(); err == nil {
			t.Fatalf("expected error for JDB_TIMEOUT_MS=%q", raw)
		}
	}
}

func TestNewFromEnvInvalidURL(t *testing.T) {
	clearJDBEnv(t)
	t.Setenv("JDB_API_URL", "://not-a-url")

	if _, _, err := jdb.NewFromEnv(); err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}
