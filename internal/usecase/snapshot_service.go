package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
	"github.com/footdata/standings-engine/internal/platform/id"
	"github.com/footdata/standings-engine/internal/platform/logging"
	"github.com/footdata/standings-engine/internal/platform/metrics"
)

const (
	defaultSnapshotRetention = 10
	defaultSnapshotListLimit = 50
)

type SnapshotServiceConfig struct {
	// Retention is how many snapshots to keep per league season; older ones
	// are pruned after every save.
	Retention int
	ListLimit int
}

func (c SnapshotServiceConfig) normalize() SnapshotServiceConfig {
	if c.Retention <= 0 {
		c.Retention = defaultSnapshotRetention
	}
	if c.ListLimit <= 0 {
		c.ListLimit = defaultSnapshotListLimit
	}

	return c
}

// SnapshotService captures point-in-time copies of league tables and can
// restore one, so a bad recalculation is never the end of the story.
type SnapshotService struct {
	leagueRepo    league.Repository
	standingsRepo standings.Repository
	snapshotRepo  snapshot.Repository
	ids           id.Generator
	logger        *logging.Logger
	cfg           SnapshotServiceConfig
	now           func() time.Time
}

func NewSnapshotService(
	leagueRepo league.Repository,
	standingsRepo standings.Repository,
	snapshotRepo snapshot.Repository,
	ids id.Generator,
	logger *logging.Logger,
	cfg SnapshotServiceConfig,
) *SnapshotService {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SnapshotService{
		leagueRepo:    leagueRepo,
		standingsRepo: standingsRepo,
		snapshotRepo:  snapshotRepo,
		ids:           ids,
		logger:        logger,
		cfg:           cfg.normalize(),
		now:           time.Now,
	}
}

// Create captures the current table for a league season on operator request.
// An empty table still snapshots, so "known empty" is restorable state.
func (s *SnapshotService) Create(ctx context.Context, leagueID, season, reason string) (snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.Create")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	season = strings.TrimSpace(season)
	reason = strings.TrimSpace(reason)
	if leagueID == "" {
		return snapshot.Snapshot{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if season == "" {
		return snapshot.Snapshot{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if reason == "" {
		reason = snapshot.ReasonManual
	}

	if _, exists, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("get league: %w", err)
	} else if !exists {
		return snapshot.Snapshot{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	return s.capture(ctx, leagueID, season, reason, "")
}

// CaptureForJob snapshots a table right before a recalculation overwrites it.
// The very first calculation of a season has nothing worth keeping, so an
// empty table is skipped and the second return is false.
func (s *SnapshotService) CaptureForJob(ctx context.Context, job calcjob.Job) (snapshot.Snapshot, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.CaptureForJob")
	defer span.End()

	entries, err := s.standingsRepo.ListBySeason(ctx, job.LeagueID, job.Season)
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("list table for snapshot league=%s season=%s: %w", job.LeagueID, job.Season, err)
	}
	if len(entries) == 0 {
		return snapshot.Snapshot{}, false, nil
	}

	snap, err := s.save(ctx, job.LeagueID, job.Season, snapshot.ReasonPreRecalculation, job.ID, entries)
	if err != nil {
		return snapshot.Snapshot{}, false, err
	}

	return snap, true, nil
}

func (s *SnapshotService) List(ctx context.Context, leagueID, season string) ([]snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.List")
	defer span.End()

	items, err := s.snapshotRepo.List(ctx, strings.TrimSpace(leagueID), strings.TrimSpace(season), s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return items, nil
}

// Restore replaces the live table with a snapshot's entries. The current
// table is snapshotted first so the restore itself can be undone.
func (s *SnapshotService) Restore(ctx context.Context, snapshotID string) (snapshot.Snapshot, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.Restore")
	defer span.End()

	snapshotID = strings.TrimSpace(snapshotID)
	if snapshotID == "" {
		return snapshot.Snapshot{}, 0, fmt.Errorf("%w: snapshot id is required", ErrInvalidInput)
	}

	snap, exists, err := s.snapshotRepo.GetByID(ctx, snapshotID)
	if err != nil {
		return snapshot.Snapshot{}, 0, fmt.Errorf("get snapshot: %w", err)
	}
	if !exists {
		return snapshot.Snapshot{}, 0, fmt.Errorf("%w: snapshot=%s", ErrNotFound, snapshotID)
	}

	if _, err := s.capture(ctx, snap.LeagueID, snap.Season, snapshot.ReasonPreRestore, ""); err != nil {
		return snapshot.Snapshot{}, 0, fmt.Errorf("capture pre-restore snapshot: %w", err)
	}

	if err := s.standingsRepo.ReplaceTable(ctx, snap.LeagueID, snap.Season, snap.Entries); err != nil {
		return snapshot.Snapshot{}, 0, fmt.Errorf("restore table league=%s season=%s: %w", snap.LeagueID, snap.Season, err)
	}
	metrics.SnapshotRestores.Inc()

	s.logger.InfoContext(ctx, "league table restored from snapshot",
		"snapshot_id", snap.ID, "league_id", snap.LeagueID, "season", snap.Season, "entries", len(snap.Entries))

	return snap, len(snap.Entries), nil
}

func (s *SnapshotService) capture(ctx context.Context, leagueID, season, reason, jobID string) (snapshot.Snapshot, error) {
	entries, err := s.standingsRepo.ListBySeason(ctx, leagueID, season)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("list table for snapshot league=%s season=%s: %w", leagueID, season, err)
	}

	return s.save(ctx, leagueID, season, reason, jobID, entries)
}

func (s *SnapshotService) save(ctx context.Context, leagueID, season, reason, jobID string, entries []standings.TableEntry) (snapshot.Snapshot, error) {
	snapshotID, err := s.ids.NewID()
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("generate snapshot id: %w", err)
	}

	snap := snapshot.Snapshot{
		ID:         snapshotID,
		LeagueID:   leagueID,
		Season:     season,
		Reason:     reason,
		JobID:      jobID,
		EntryCount: len(entries),
		CreatedAt:  s.now().UTC(),
		Entries:    entries,
	}
	if err := s.snapshotRepo.Save(ctx, snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("save snapshot league=%s season=%s: %w", leagueID, season, err)
	}
	metrics.SnapshotsCreated.Inc()

	// Pruning is best-effort; an over-retained season is not worth failing a
	// capture over.
	if pruned, err := s.snapshotRepo.DeleteOldest(ctx, leagueID, season, s.cfg.Retention); err != nil {
		s.logger.WarnContext(ctx, "prune old snapshots failed",
			"league_id", leagueID, "season", season, "error", err)
	} else if pruned > 0 {
		s.logger.InfoContext(ctx, "pruned old snapshots",
			"league_id", leagueID, "season", season, "pruned", pruned, "keep", s.cfg.Retention)
	}

	s.logger.InfoContext(ctx, "league table snapshot saved",
		"snapshot_id", snap.ID, "league_id", leagueID, "season", season,
		"reason", reason, "entries", len(entries))

	return snap, nil
}
