package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/platform/logging"
)

// MatchResultService takes match results from the feed callback, persists
// them, and triggers a recalculation of the affected table.
type MatchResultService struct {
	leagueRepo league.Repository
	matchRepo  match.Repository
	queue      *QueueService
	logger     *logging.Logger
}

func NewMatchResultService(
	leagueRepo league.Repository,
	matchRepo match.Repository,
	queue *QueueService,
	logger *logging.Logger,
) *MatchResultService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchResultService{
		leagueRepo: leagueRepo,
		matchRepo:  matchRepo,
		queue:      queue,
		logger:     logger,
	}
}

// Ingest records an incoming match and, for finished matches, enqueues a
// high-priority recalculation. The returned bool reports whether a job was
// enqueued: the match is recorded either way, and a full queue only costs the
// immediate trigger, not the result.
func (s *MatchResultService) Ingest(ctx context.Context, item match.Match) (calcjob.Job, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchResultService.Ingest")
	defer span.End()

	item.Status = match.NormalizeStatus(item.Status)
	if err := item.Validate(); err != nil {
		return calcjob.Job{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, exists, err := s.leagueRepo.GetByID(ctx, item.LeagueID); err != nil {
		return calcjob.Job{}, false, fmt.Errorf("get league: %w", err)
	} else if !exists {
		return calcjob.Job{}, false, fmt.Errorf("%w: league=%s", ErrNotFound, item.LeagueID)
	}

	if err := s.matchRepo.RecordResult(ctx, item); err != nil {
		return calcjob.Job{}, false, fmt.Errorf("record match %s: %w", item.ID, err)
	}

	s.logger.InfoContext(ctx, "match result recorded",
		"match_id", item.ID, "league_id", item.LeagueID, "season", item.Season, "status", item.Status)

	if !match.IsFinishedStatus(item.Status) {
		return calcjob.Job{}, false, nil
	}

	job, merged, err := s.queue.Enqueue(ctx, item.LeagueID, item.Season, string(calcjob.PriorityHigh), calcjob.TriggerMatchResult)
	if err != nil {
		// The result is already stored; a saturated queue just means the
		// table catches up on a later trigger.
		if errors.Is(err, ErrQueueOverload) {
			s.logger.WarnContext(ctx, "recalculation skipped, queue is full",
				"match_id", item.ID, "league_id", item.LeagueID, "season", item.Season)
			return calcjob.Job{}, false, nil
		}
		return calcjob.Job{}, false, fmt.Errorf("enqueue recalculation league=%s season=%s: %w", item.LeagueID, item.Season, err)
	}

	if merged {
		s.logger.InfoContext(ctx, "match result merged into queued recalculation",
			"match_id", item.ID, "job_id", job.ID)
	}

	return job, true, nil
}
