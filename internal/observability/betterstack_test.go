package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/footdata/standings-engine/internal/config"
	"github.com/footdata/standings-engine/internal/platform/logging"
)

// ingestCapture fakes the Better Stack ingest endpoint and records what
// arrives.
type ingestCapture struct {
	server   *httptest.Server
	requests atomic.Int64
	auth     atomic.Value
}

func newIngestCapture(t *testing.T) *ingestCapture {
	t.Helper()

	c := &ingestCapture{}
	c.auth.Store("")
	c.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requests.Add(1)
		c.auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(c.server.Close)

	return c
}

func (c *ingestCapture) shipperConfig() config.Config {
	return config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: c.server.URL,
		BetterStackToken:    "tok-ingest-1",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
		ServiceName:         "standings-engine-api",
		AppEnv:              config.EnvDev,
	}
}

func drainShipper(t *testing.T, shutdown func(context.Context) error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("drain shipper: %v", err)
	}
}

func TestInitBetterStackLogger_SendsErrorLog(t *testing.T) {
	t.Parallel()

	capture := newIngestCapture(t)

	logger, shutdown, err := InitBetterStackLogger(capture.shipperConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("InitBetterStackLogger: %v", err)
	}

	logger.ErrorContext(context.Background(), "replace table failed", "league", "idn-liga-1")
	drainShipper(t, shutdown)

	if capture.requests.Load() == 0 {
		t.Fatal("error log never reached the ingest endpoint")
	}
	if got := capture.auth.Load().(string); got != "Bearer tok-ingest-1" {
		t.Fatalf("authorization header = %q, want the ingest token", got)
	}
}

func TestInitBetterStackLogger_RespectsMinLevel(t *testing.T) {
	t.Parallel()

	capture := newIngestCapture(t)

	logger, shutdown, err := InitBetterStackLogger(capture.shipperConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("InitBetterStackLogger: %v", err)
	}

	logger.InfoContext(context.Background(), "queue depth sampled", "depth", 3)
	drainShipper(t, shutdown)

	if n := capture.requests.Load(); n != 0 {
		t.Fatalf("info log below the min level produced %d request(s)", n)
	}
}

func TestNormalizeBetterStackEndpoint(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                "",
		"   ":                             "",
		"in.logs.betterstack.com":         "https://in.logs.betterstack.com",
		"https://in.logs.betterstack.com": "https://in.logs.betterstack.com",
		"http://localhost:8080":           "http://localhost:8080",
	}
	for in, want := range cases {
		if got := normalizeBetterStackEndpoint(in); got != want {
			t.Fatalf("normalizeBetterStackEndpoint(%q)=%q want %q", in, got, want)
		}
	}
}
