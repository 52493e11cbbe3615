package config

import (
	"testing"
	"time"
)

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "qa")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown APP_ENV")
	}
}

func TestLoad_RepoBackend(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cases := map[string]struct {
		value   string
		want    string
		wantErr bool
	}{
		"defaults to memory":      {value: "", want: BackendMemory},
		"postgres any case":       {value: "Postgres", want: BackendPostgres},
		"unknown backend rejects": {value: "sqlite", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("REPO_BACKEND", tc.value)
			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for REPO_BACKEND=%q", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.RepoBackend != tc.want {
				t.Fatalf("REPO_BACKEND=%q: got backend %q, want %q", tc.value, cfg.RepoBackend, tc.want)
			}
		})
	}
}

// Every feature toggle that needs a companion setting must refuse to start
// half-configured.
func TestLoad_TogglesRequireTheirSettings(t *testing.T) {
	cases := map[string]struct {
		toggle  string
		cleared []string
	}{
		"uptrace needs a dsn":              {toggle: "UPTRACE_ENABLED", cleared: []string{"UPTRACE_DSN"}},
		"better stack needs an endpoint":   {toggle: "BETTERSTACK_ENABLED", cleared: []string{"BETTERSTACK_ENDPOINT"}},
		"pyroscope needs a server address": {toggle: "PYROSCOPE_ENABLED", cleared: []string{"PYROSCOPE_SERVER_ADDRESS"}},
		"match feed needs url and token":   {toggle: "MATCH_FEED_ENABLED", cleared: []string{"MATCH_FEED_BASE_URL", "MATCH_FEED_TOKEN"}},
		"webhook needs a url":              {toggle: "NOTIFY_WEBHOOK_ENABLED", cleared: []string{"NOTIFY_WEBHOOK_URL"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tc.toggle, "true")
			for _, key := range tc.cleared {
				t.Setenv(key, "")
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=true without %v", tc.toggle, tc.cleared)
			}
		})
	}
}

func TestLoad_LogShippingSettings(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "in.logs.betterstack.com")
	t.Setenv("BETTERSTACK_TOKEN", "bs-secret")
	t.Setenv("BETTERSTACK_TIMEOUT", "2500ms")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	switch {
	case !cfg.BetterStackEnabled:
		t.Fatal("expected shipping enabled")
	case cfg.BetterStackEndpoint != "in.logs.betterstack.com":
		t.Fatalf("unexpected endpoint %q", cfg.BetterStackEndpoint)
	case cfg.BetterStackToken != "bs-secret":
		t.Fatal("token did not round trip")
	case cfg.BetterStackTimeout != 2500*time.Millisecond:
		t.Fatalf("unexpected timeout %s", cfg.BetterStackTimeout)
	case cfg.BetterStackMinLevel.String() != "warn":
		t.Fatalf("unexpected min level %s", cfg.BetterStackMinLevel)
	}
}

func TestLoad_SwaggerDefaultFollowsEnvironment(t *testing.T) {
	for env, want := range map[string]bool{EnvDev: true, EnvStage: true, EnvProd: false} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			t.Setenv("SWAGGER_ENABLED", "")
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if cfg.SwaggerEnabled != want {
				t.Fatalf("%s: swagger enabled = %v, want %v", env, cfg.SwaggerEnabled, want)
			}
		})
	}
}

// Blank values must fall back rather than disable a feature silently.
func TestLoad_BlankValuesFallBack(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "standings-engine-test")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "   ")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr, got %q", cfg.PprofAddr)
	}
	if cfg.PyroscopeAppName != "standings-engine-test" {
		t.Fatalf("expected app name to fall back to service name, got %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cases := map[string]struct {
		value string
		want  []string
	}{
		"default wildcard": {value: "", want: []string{"*"}},
		"list with spaces": {
			value: " https://ops.footdata.dev, http://localhost:5173 ",
			want:  []string{"https://ops.footdata.dev", "http://localhost:5173"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CORS_ALLOWED_ORIGINS", tc.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if len(cfg.CORSAllowedOrigins) != len(tc.want) {
				t.Fatalf("got %d origins, want %d: %v", len(cfg.CORSAllowedOrigins), len(tc.want), cfg.CORSAllowedOrigins)
			}
			for i, origin := range tc.want {
				if cfg.CORSAllowedOrigins[i] != origin {
					t.Fatalf("origin[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
				}
			}
		})
	}
}

func TestLoad_DBPreparedBinaryFlag(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.DBDisablePreparedBinary {
		t.Fatal("expected prepared binary results disabled by default")
	}

	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a non-boolean value")
	}
}

func TestLoad_CacheSettings(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != 60*time.Second {
		t.Fatalf("unexpected cache defaults: enabled=%v ttl=%s", cfg.CacheEnabled, cfg.CacheTTL)
	}

	t.Setenv("CACHE_TTL", "bad")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid CACHE_TTL")
	}
}

func TestLoad_QueueConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QueueWorkers != 2 {
			t.Fatalf("unexpected default queue workers: %d", cfg.QueueWorkers)
		}
		if cfg.QueueMaxPending != 100 {
			t.Fatalf("unexpected default queue max pending: %d", cfg.QueueMaxPending)
		}
		if cfg.QueueMaxAttempts != 3 {
			t.Fatalf("unexpected default queue max attempts: %d", cfg.QueueMaxAttempts)
		}
		if cfg.QueueRetryBaseDelay != time.Second {
			t.Fatalf("unexpected default retry base delay: %s", cfg.QueueRetryBaseDelay)
		}
		if cfg.QueueProcessingTimeout != 30*time.Second {
			t.Fatalf("unexpected default processing timeout: %s", cfg.QueueProcessingTimeout)
		}
		if cfg.JobDispatchInterval != 250*time.Millisecond {
			t.Fatalf("unexpected default dispatch interval: %s", cfg.JobDispatchInterval)
		}
		if cfg.JobReapInterval != 5*time.Second {
			t.Fatalf("unexpected default reap interval: %s", cfg.JobReapInterval)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("QUEUE_WORKERS", "4")
		t.Setenv("QUEUE_MAX_PENDING", "250")
		t.Setenv("QUEUE_PROCESSING_TIMEOUT", "45s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QueueWorkers != 4 {
			t.Fatalf("unexpected queue workers: %d", cfg.QueueWorkers)
		}
		if cfg.QueueMaxPending != 250 {
			t.Fatalf("unexpected queue max pending: %d", cfg.QueueMaxPending)
		}
		if cfg.QueueProcessingTimeout != 45*time.Second {
			t.Fatalf("unexpected processing timeout: %s", cfg.QueueProcessingTimeout)
		}
	})

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("QUEUE_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for QUEUE_WORKERS=0")
		}
	})

	t.Run("max delay below base delay", func(t *testing.T) {
		t.Setenv("QUEUE_RETRY_BASE_DELAY", "10s")
		t.Setenv("QUEUE_RETRY_MAX_DELAY", "5s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QUEUE_RETRY_MAX_DELAY < QUEUE_RETRY_BASE_DELAY")
		}
	})
}

func TestLoad_HealthThresholdParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.HealthPendingDegraded != 10 || cfg.HealthPendingUnhealthy != 50 {
			t.Fatalf("unexpected default pending thresholds: %d/%d", cfg.HealthPendingDegraded, cfg.HealthPendingUnhealthy)
		}
		if cfg.HealthFailureRateDegraded != 0.1 || cfg.HealthFailureRateUnhealthy != 0.5 {
			t.Fatalf("unexpected default failure rates: %v/%v", cfg.HealthFailureRateDegraded, cfg.HealthFailureRateUnhealthy)
		}
	})

	t.Run("unhealthy must not be below degraded", func(t *testing.T) {
		t.Setenv("HEALTH_PENDING_DEGRADED", "30")
		t.Setenv("HEALTH_PENDING_UNHEALTHY", "20")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when HEALTH_PENDING_UNHEALTHY < HEALTH_PENDING_DEGRADED")
		}
	})

	t.Run("failure rate bounds", func(t *testing.T) {
		t.Setenv("HEALTH_FAILURE_RATE_DEGRADED", "1.5")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for HEALTH_FAILURE_RATE_DEGRADED > 1")
		}
	})
}

func TestLoad_SnapshotConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SnapshotRetention != 10 {
			t.Fatalf("unexpected default snapshot retention: %d", cfg.SnapshotRetention)
		}
		if cfg.SnapshotListLimit != 50 {
			t.Fatalf("unexpected default snapshot list limit: %d", cfg.SnapshotListLimit)
		}
	})

	t.Run("retention must be positive", func(t *testing.T) {
		t.Setenv("SNAPSHOT_RETENTION", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SNAPSHOT_RETENTION=0")
		}
	})
}

func TestLoad_MatchFeedConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("MATCH_FEED_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MatchFeedEnabled {
			t.Fatalf("expected MatchFeedEnabled=false by default")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("MATCH_FEED_ENABLED", "true")
		t.Setenv("MATCH_FEED_BASE_URL", "https://feeds.footdata.dev/v1")
		t.Setenv("MATCH_FEED_TOKEN", "feed-token")
		t.Setenv("MATCH_FEED_TIMEOUT", "15s")
		t.Setenv("MATCH_FEED_MAX_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.MatchFeedEnabled {
			t.Fatalf("expected MatchFeedEnabled=true")
		}
		if cfg.MatchFeedBaseURL != "https://feeds.footdata.dev/v1" {
			t.Fatalf("unexpected feed base url: %q", cfg.MatchFeedBaseURL)
		}
		if cfg.MatchFeedTimeout != 15*time.Second {
			t.Fatalf("unexpected feed timeout: %s", cfg.MatchFeedTimeout)
		}
		if cfg.MatchFeedMaxRetries != 2 {
			t.Fatalf("unexpected feed max retries: %d", cfg.MatchFeedMaxRetries)
		}
	})
}

func TestLoad_NotifyWebhookConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("NOTIFY_WEBHOOK_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.NotifyWebhookEnabled {
			t.Fatalf("expected NotifyWebhookEnabled=false by default")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("NOTIFY_WEBHOOK_ENABLED", "true")
		t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.footdata.dev/standings")
		t.Setenv("NOTIFY_WEBHOOK_TOKEN", "hook-token")
		t.Setenv("NOTIFY_WEBHOOK_RETRIES", "2")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal-job-token")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.NotifyWebhookEnabled {
			t.Fatalf("expected NotifyWebhookEnabled=true")
		}
		if cfg.NotifyWebhookRetries != 2 {
			t.Fatalf("unexpected webhook retries: %d", cfg.NotifyWebhookRetries)
		}
		if cfg.InternalJobToken != "internal-job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}
