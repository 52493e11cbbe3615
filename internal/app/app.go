package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/footdata/standings-engine/external/matchfeed"
	"github.com/footdata/standings-engine/external/notify"
	"github.com/footdata/standings-engine/internal/config"
	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
	"github.com/footdata/standings-engine/internal/domain/team"
	cacherepo "github.com/footdata/standings-engine/internal/infrastructure/repository/cache"
	"github.com/footdata/standings-engine/internal/infrastructure/repository/memory"
	pgrepo "github.com/footdata/standings-engine/internal/infrastructure/repository/postgres"
	"github.com/footdata/standings-engine/internal/interfaces/httpapi"
	basecache "github.com/footdata/standings-engine/internal/platform/cache"
	idgen "github.com/footdata/standings-engine/internal/platform/id"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/platform/resilience"
	"github.com/footdata/standings-engine/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Application holds the wired service graph. The caller runs Server and
// Orchestrator and calls Close once both have stopped.
type Application struct {
	Server       *http.Server
	Orchestrator *usecase.OrchestratorService

	db *sqlx.DB
}

type repositories struct {
	leagues   league.Repository
	teams     team.Repository
	matches   match.Repository
	tables    standings.Repository
	snapshots snapshot.Repository
	dispatch  calcjob.DispatchRepository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.leagues = cacherepo.NewLeagueRepository(repos.leagues, store)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
		repos.tables = cacherepo.NewStandingsRepository(repos.tables, store)
	}

	jobIDs := idgen.NewPrefixedGenerator("job")
	snapIDs := idgen.NewPrefixedGenerator("snap")

	queueSvc := usecase.NewQueueService(repos.leagues, jobIDs, logger, usecase.QueueServiceConfig{
		MaxPending:        cfg.QueueMaxPending,
		ProcessingTimeout: cfg.QueueProcessingTimeout,
		HistoryLimit:      cfg.QueueHistoryLimit,
		OutcomeWindow:     cfg.QueueOutcomeWindow,
		Retry: calcjob.RetryPolicy{
			MaxAttempts: cfg.QueueMaxAttempts,
			BaseDelay:   cfg.QueueRetryBaseDelay,
			MaxDelay:    cfg.QueueRetryMaxDelay,
		},
	})
	snapshotSvc := usecase.NewSnapshotService(repos.leagues, repos.tables, repos.snapshots, snapIDs, logger, usecase.SnapshotServiceConfig{
		Retention: cfg.SnapshotRetention,
		ListLimit: cfg.SnapshotListLimit,
	})
	standingsSvc := usecase.NewStandingsService(repos.leagues, repos.tables)
	healthSvc := usecase.NewHealthService(queueSvc, usecase.HealthServiceConfig{
		PendingDegraded:      cfg.HealthPendingDegraded,
		PendingUnhealthy:     cfg.HealthPendingUnhealthy,
		FailureRateDegraded:  cfg.HealthFailureRateDegraded,
		FailureRateUnhealthy: cfg.HealthFailureRateUnhealthy,
	})
	matchResultSvc := usecase.NewMatchResultService(repos.leagues, repos.matches, queueSvc, logger)

	var feed usecase.MatchFeedProvider
	if cfg.MatchFeedEnabled {
		feed = matchfeed.NewClient(matchfeed.ClientConfig{
			BaseURL:    cfg.MatchFeedBaseURL,
			Token:      cfg.MatchFeedToken,
			Timeout:    cfg.MatchFeedTimeout,
			MaxRetries: cfg.MatchFeedMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.MatchFeedCircuitEnabled,
				FailureThreshold: cfg.MatchFeedCircuitFailureCount,
				OpenTimeout:      cfg.MatchFeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.MatchFeedCircuitHalfOpenMaxReq,
			},
		})
	}

	var publisher usecase.OutcomePublisher
	if cfg.NotifyWebhookEnabled {
		publisher = notify.NewWebhookPublisher(notify.WebhookPublisherConfig{
			WebhookURL: cfg.NotifyWebhookURL,
			Token:      cfg.NotifyWebhookToken,
			Retries:    cfg.NotifyWebhookRetries,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.NotifyCircuitEnabled,
				FailureThreshold: cfg.NotifyCircuitFailureCount,
				OpenTimeout:      cfg.NotifyCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.NotifyCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	orchestrator := usecase.NewOrchestratorService(
		queueSvc,
		repos.leagues,
		repos.teams,
		repos.matches,
		repos.tables,
		snapshotSvc,
		repos.dispatch,
		feed,
		publisher,
		usecase.OrchestratorConfig{
			Workers:          cfg.QueueWorkers,
			DispatchInterval: cfg.JobDispatchInterval,
			ReapInterval:     cfg.JobReapInterval,
		},
		logger,
	)

	handler := httpapi.NewHandler(standingsSvc, queueSvc, snapshotSvc, healthSvc, matchResultSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &Application{
		Server:       server,
		Orchestrator: orchestrator,
		db:           db,
	}, nil
}

// Close releases pooled resources. Stop the HTTP server and the orchestrator
// before calling it.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.RepoBackend == config.BackendPostgres {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		if err := pgrepo.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return repositories{}, nil, fmt.Errorf("bootstrap seed data: %w", err)
		}

		logger.Info("repositories ready",
			"backend", config.BackendPostgres,
			"db", dbNameFromURL(cfg.DBURL),
		)
		return repositories{
			leagues:   pgrepo.NewLeagueRepository(db),
			teams:     pgrepo.NewTeamRepository(db),
			matches:   pgrepo.NewMatchRepository(db),
			tables:    pgrepo.NewStandingsRepository(db),
			snapshots: pgrepo.NewSnapshotRepository(db),
			dispatch:  pgrepo.NewDispatchRepository(db),
		}, db, nil
	}

	logger.Info("repositories ready", "backend", config.BackendMemory)
	return repositories{
		leagues:   memory.NewLeagueRepository(memory.SeedLeagues()),
		teams:     memory.NewTeamRepository(memory.SeedTeams()),
		matches:   memory.NewMatchRepository(memory.SeedMatches()),
		tables:    memory.NewStandingsRepository(),
		snapshots: memory.NewSnapshotRepository(),
		dispatch:  memory.NewDispatchRepository(),
	}, nil, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
