package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
	"github.com/footdata/standings-engine/internal/domain/team"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/platform/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOrchestratorWorkers = 2
	defaultDispatchInterval    = 250 * time.Millisecond
	defaultReapInterval        = 5 * time.Second
)

// MatchFeedProvider pulls the latest results for a league season from the
// upstream feed.
type MatchFeedProvider interface {
	FetchResults(ctx context.Context, item league.League, season string) ([]match.Match, error)
}

// OutcomePublisher pushes job outcomes to interested systems.
type OutcomePublisher interface {
	PublishRecalculated(ctx context.Context, job calcjob.Job, entryCount int) error
	PublishRecalculationFailed(ctx context.Context, job calcjob.Job, cause string, willRetry bool) error
}

type noopOutcomePublisher struct{}

func (noopOutcomePublisher) PublishRecalculated(context.Context, calcjob.Job, int) error {
	return nil
}

func (noopOutcomePublisher) PublishRecalculationFailed(context.Context, calcjob.Job, string, bool) error {
	return nil
}

func NewNoopOutcomePublisher() OutcomePublisher {
	return noopOutcomePublisher{}
}

type OrchestratorConfig struct {
	Workers          int
	DispatchInterval time.Duration
	ReapInterval     time.Duration
}

// OrchestratorService drives recalculation jobs from the queue through the
// compute-verify-persist pipeline on a bounded worker pool.
type OrchestratorService struct {
	queue         *QueueService
	leagueRepo    league.Repository
	teamRepo      team.Repository
	matchRepo     match.Repository
	standingsRepo standings.Repository
	snapshots     *SnapshotService
	dispatchRepo  calcjob.DispatchRepository
	feed          MatchFeedProvider
	publisher     OutcomePublisher
	cfg           OrchestratorConfig
	logger        *logging.Logger
	now           func() time.Time

	inflight sync.WaitGroup
}

func NewOrchestratorService(
	queue *QueueService,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	standingsRepo standings.Repository,
	snapshots *SnapshotService,
	dispatchRepo calcjob.DispatchRepository,
	feed MatchFeedProvider,
	publisher OutcomePublisher,
	cfg OrchestratorConfig,
	logger *logging.Logger,
) *OrchestratorService {
	if publisher == nil {
		publisher = NewNoopOutcomePublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultOrchestratorWorkers
	}
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = defaultDispatchInterval
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}

	return &OrchestratorService{
		queue:         queue,
		leagueRepo:    leagueRepo,
		teamRepo:      teamRepo,
		matchRepo:     matchRepo,
		standingsRepo: standingsRepo,
		snapshots:     snapshots,
		dispatchRepo:  dispatchRepo,
		feed:          feed,
		publisher:     publisher,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Run blocks until ctx is cancelled, dispatching eligible jobs to the worker
// pool and reclaiming stuck ones. In-flight jobs drain before it returns.
func (s *OrchestratorService) Run(ctx context.Context) error {
	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	s.logger.InfoContext(ctx, "recalculation orchestrator started",
		"workers", s.cfg.Workers,
		"dispatch_interval", s.cfg.DispatchInterval,
		"reap_interval", s.cfg.ReapInterval)

	var loops conc.WaitGroup
	loops.Go(func() { s.dispatchLoop(ctx, pool) })
	loops.Go(func() { s.reapLoop(ctx) })
	loops.Wait()

	s.inflight.Wait()
	s.logger.InfoContext(ctx, "recalculation orchestrator stopped")

	return nil
}

func (s *OrchestratorService) dispatchLoop(ctx context.Context, pool *ants.Pool) {
	ticker := time.NewTicker(s.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchReady(ctx, pool)
		}
	}
}

func (s *OrchestratorService) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.queue.ReapStuck(ctx, s.now())
		}
	}
}

// dispatchReady hands eligible jobs to free workers until either runs out.
func (s *OrchestratorService) dispatchReady(ctx context.Context, pool *ants.Pool) {
	for pool.Free() > 0 {
		job, ok := s.queue.Dequeue(s.now())
		if !ok {
			return
		}

		s.inflight.Add(1)
		if err := pool.Submit(func() {
			defer s.inflight.Done()
			s.processJob(ctx, job)
		}); err != nil {
			s.inflight.Done()
			s.logger.ErrorContext(ctx, "submit job to worker pool", "job_id", job.ID, "error", err)
			if _, failErr := s.queue.Fail(ctx, job.ID, fmt.Errorf("submit to worker pool: %w", err), true); failErr != nil {
				s.logger.ErrorContext(ctx, "report worker pool submit failure", "job_id", job.ID, "error", failErr)
			}
			return
		}
	}
}

// processJob runs one recalculation attempt end to end and reports the
// outcome back to the queue, the audit trail, and the outcome publisher.
func (s *OrchestratorService) processJob(ctx context.Context, job calcjob.Job) {
	runCtx, cancel := context.WithTimeout(ctx, s.queue.ProcessingTimeout())
	defer cancel()

	runCtx, span := startUsecaseSpan(runCtx, "usecase.OrchestratorService.processJob")
	defer span.End()

	s.logger.InfoContext(runCtx, "recalculation started",
		"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season,
		"attempt", job.Attempts, "trigger", job.Trigger)
	s.recordDispatch(runCtx, job, calcjob.DispatchEnqueued, "")

	start := time.Now()
	entryCount, err := s.recalculate(runCtx, job)
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		if _, completeErr := s.queue.Complete(runCtx, job.ID); completeErr != nil {
			s.logger.ErrorContext(runCtx, "mark job completed", "job_id", job.ID, "error", completeErr)
		}
		s.recordDispatch(runCtx, job, calcjob.DispatchCompleted, "")
		if pubErr := s.publisher.PublishRecalculated(runCtx, job, entryCount); pubErr != nil {
			s.logger.WarnContext(runCtx, "publish recalculation outcome failed", "job_id", job.ID, "error", pubErr)
		}
		s.logger.InfoContext(runCtx, "recalculation finished",
			"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season,
			"entries", entryCount, "duration_ms", time.Since(start).Milliseconds())
		return
	}

	transient := isTransientError(err)
	updated, failErr := s.queue.Fail(runCtx, job.ID, err, transient)
	if failErr != nil {
		s.logger.ErrorContext(runCtx, "mark job failed", "job_id", job.ID, "error", failErr)
	}
	willRetry := failErr == nil && updated.Status == calcjob.StatusPending
	s.recordDispatch(runCtx, job, calcjob.DispatchFailed, err.Error())
	if pubErr := s.publisher.PublishRecalculationFailed(runCtx, job, err.Error(), willRetry); pubErr != nil {
		s.logger.WarnContext(runCtx, "publish recalculation outcome failed", "job_id", job.ID, "error", pubErr)
	}
	s.logger.ErrorContext(runCtx, "recalculation failed",
		"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season,
		"attempt", job.Attempts, "transient", transient, "will_retry", willRetry, "error", err)
}

// recalculate is the per-job pipeline: load inputs, snapshot the current
// table, compute, verify, persist. Returns how many rows were written.
func (s *OrchestratorService) recalculate(ctx context.Context, job calcjob.Job) (int, error) {
	s.refreshFromFeed(ctx, job)

	teams, err := s.teamRepo.ListByLeague(ctx, job.LeagueID)
	if err != nil {
		return 0, fmt.Errorf("%w: list teams league=%s: %v", ErrDependencyUnavailable, job.LeagueID, err)
	}
	if len(teams) == 0 {
		return 0, fmt.Errorf("%w: league %s has no teams registered", ErrInvalidInput, job.LeagueID)
	}

	matches, err := s.matchRepo.ListFinished(ctx, job.LeagueID, job.Season)
	if err != nil {
		return 0, fmt.Errorf("%w: list finished matches league=%s season=%s: %v", ErrDependencyUnavailable, job.LeagueID, job.Season, err)
	}

	snap, hasSnapshot, err := s.snapshots.CaptureForJob(ctx, job)
	if err != nil {
		return 0, fmt.Errorf("%w: snapshot before recalculation: %v", ErrDependencyUnavailable, err)
	}

	entries, err := standings.Compute(job.LeagueID, job.Season, matches, team.IDs(teams))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := standings.Verify(entries); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	computedAt := s.now().UTC()
	for i := range entries {
		entries[i].ComputedAt = computedAt
	}

	if err := s.standingsRepo.ReplaceTable(ctx, job.LeagueID, job.Season, entries); err != nil {
		if hasSnapshot {
			s.rollback(ctx, job, snap)
		}
		return 0, fmt.Errorf("%w: replace table league=%s season=%s: %v", ErrDependencyUnavailable, job.LeagueID, job.Season, err)
	}

	return len(entries), nil
}

// refreshFromFeed reconciles stored results with the upstream feed before
// computing. The local store stays the source of truth, so feed trouble is
// logged and the calculation proceeds on stored data.
func (s *OrchestratorService) refreshFromFeed(ctx context.Context, job calcjob.Job) {
	if s.feed == nil {
		return
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, job.LeagueID)
	if err != nil || !exists {
		s.logger.WarnContext(ctx, "skip feed refresh, league lookup failed",
			"job_id", job.ID, "league_id", job.LeagueID, "error", err)
		return
	}

	results, err := s.feed.FetchResults(ctx, item, job.Season)
	if err != nil {
		s.logger.WarnContext(ctx, "feed refresh failed, computing from stored results",
			"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season, "error", err)
		return
	}

	stored := 0
	for _, result := range results {
		result.Status = match.NormalizeStatus(result.Status)
		if err := result.Validate(); err != nil {
			s.logger.WarnContext(ctx, "skip malformed feed result", "match_id", result.ID, "error", err)
			continue
		}
		if err := s.matchRepo.RecordResult(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "store feed result failed", "match_id", result.ID, "error", err)
			continue
		}
		stored++
	}
	if stored > 0 {
		s.logger.InfoContext(ctx, "refreshed results from feed",
			"job_id", job.ID, "league_id", job.LeagueID, "season", job.Season, "results", stored)
	}
}

// rollback restores the pre-recalculation snapshot after a failed write so
// readers never see a half-replaced table.
func (s *OrchestratorService) rollback(ctx context.Context, job calcjob.Job, snap snapshot.Snapshot) {
	if err := s.standingsRepo.ReplaceTable(ctx, job.LeagueID, job.Season, snap.Entries); err != nil {
		s.logger.ErrorContext(ctx, "rollback to snapshot failed",
			"job_id", job.ID, "snapshot_id", snap.ID, "league_id", job.LeagueID, "season", job.Season, "error", err)
		return
	}

	s.logger.WarnContext(ctx, "table rolled back to pre-recalculation snapshot",
		"job_id", job.ID, "snapshot_id", snap.ID, "league_id", job.LeagueID, "season", job.Season)
}

func (s *OrchestratorService) recordDispatch(ctx context.Context, job calcjob.Job, status calcjob.DispatchStatus, errorMessage string) {
	if s.dispatchRepo == nil {
		return
	}

	traceID, spanID := traceMetaFromContext(ctx)
	event := calcjob.DispatchEvent{
		DispatchID: fmt.Sprintf("%s-attempt-%d", job.ID, job.Attempts),
		JobID:      job.ID,
		LeagueID:   job.LeagueID,
		Season:     job.Season,
		Trigger:    job.Trigger,
		Priority:   job.Priority,
		Status:     status,
		Attempts:   job.Attempts,
		Payload: map[string]any{
			"league_id": job.LeagueID,
			"season":    job.Season,
			"trigger":   job.Trigger,
		},
		ErrorMessage: errorMessage,
		OccurredAt:   s.now().UTC(),
		TraceID:      traceID,
		SpanID:       spanID,
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID, "status", event.Status, "error", err)
	}
}

// isTransientError separates retryable infrastructure failures from permanent
// input and invariant failures.
func isTransientError(err error) bool {
	return !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrInvariantViolation)
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
