// jdb-sandbox runs a local fake jdb server over the in-memory mock store. It
// speaks the same wire contract as the real server (get, put, delete, cas
// and append over HTTP GET with JSON envelope replies) and can inject
// latency, jitter and failures for exercising clients under bad conditions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JDrit/jdb-jepsen/internal/devseed"
	"github.com/JDrit/jdb-jepsen/pkg/jdb/mock"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jdb_sandbox_requests_total",
		Help: "Total number of requests served by the sandbox",
	},
	[]string{"op", "status"},
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	seed := flag.String("seed", "", "path to JSON seed for the mock store")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	jitter := flag.Float64("jitter", 0, "latency jitter factor in [0,1]")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	store := mock.New()
	if *seed != "" {
		entries, err := devseed.Load(*seed)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		if err := store.Seed(entries); err != nil {
			log.Fatalf("apply seed: %v", err)
		}
		log.Printf("seeded %d keys", store.Len())
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		log.Fatalf("parse fail flag: %v", err)
	}
	inject := newLatencyInjector(*latency, *jitter)

	mux := http.NewServeMux()
	handle := func(path, op string, h http.HandlerFunc) {
		mux.HandleFunc(path, counted(op, withMiddleware(inject, failCfg, h)))
	}
	handle("/get", "get", func(w http.ResponseWriter, r *http.Request) {
		handleGet(w, r, store)
	})
	handle("/put", "put", func(w http.ResponseWriter, r *http.Request) {
		handlePut(w, r, store)
	})
	handle("/delete", "delete", func(w http.ResponseWriter, r *http.Request) {
		handleDelete(w, r, store)
	})
	handle("/cas", "cas", func(w http.ResponseWriter, r *http.Request) {
		handleCAS(w, r, store)
	})
	handle("/append", "append", func(w http.ResponseWriter, r *http.Request) {
		handleAppend(w, r, store)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	log.Printf("jdb-sandbox listening on %s", *addr)
	fmt.Println()
	fmt.Println("export JDB_RUNTIME_MODE=http")
	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Printf("export JDB_API_URL=http://%s\n", host)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

// latencyInjector delays requests by a base duration spread by a jitter
// factor, so injected latency is not perfectly regular.
type latencyInjector struct {
	base   time.Duration
	jitter float64

	mu   sync.Mutex
	rand *rand.Rand
}

func newLatencyInjector(base time.Duration, jitter float64) *latencyInjector {
	if jitter < 0 {
		jitter = 0
	}
	return &latencyInjector{
		base:   base,
		jitter: jitter,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// delay returns the next injected latency: base scaled by a random factor in
// [1-jitter, 1+jitter], clamped at zero.
func (l *latencyInjector) delay() time.Duration {
	if l.base <= 0 {
		return 0
	}
	if l.jitter == 0 {
		return l.base
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	factor := 1 + (l.rand.Float64()*2-1)*math.Min(l.jitter, 1)
	if factor < 0 {
		factor = 0
	}
	return time.Duration(float64(l.base) * factor)
}

// roll draws a uniform sample in [0,1) for failure decisions.
func (l *latencyInjector) roll() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rand.Float64()
}

func withMiddleware(inject *latencyInjector, failCfg failConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d := inject.delay(); d > 0 {
			time.Sleep(d)
		}
		if failCfg.rate > 0 && inject.roll() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, map[string]string{"error": "failure injected"})
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func counted(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		requestsTotal.WithLabelValues(op, strconv.Itoa(rec.status)).Inc()
	}
}

func handleGet(w http.ResponseWriter, r *http.Request, store *mock.Mock) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	value, found, err := store.Get(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such key"})
		return
	}
	doc, err := json.Marshal(map[string]string{"value": value})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// The real server double-encodes get replies: the body is a JSON string
	// containing the {"value": ...} document.
	writeJSON(w, http.StatusOK, string(doc))
}

func handlePut(w http.ResponseWriter, r *http.Request, store *mock.Mock) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	if err := store.Put(r.Context(), key, r.URL.Query().Get("value")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func handleDelete(w http.ResponseWriter, r *http.Request, store *mock.Mock) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	existed, err := store.Delete(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such key"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func handleCAS(w http.ResponseWriter, r *http.Request, store *mock.Mock) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	replaced, err := store.CAS(r.Context(), key, q.Get("current"), q.Get("new"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"replaced": replaced})
}

func handleAppend(w http.ResponseWriter, r *http.Request, store *mock.Mock) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	if err := store.Append(r.Context(), key, r.URL.Query().Get("value")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func requireKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing key parameter"})
		return "", false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return failConfig{}, err
			}
			cfg.rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}
