package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footdata/standings-engine/internal/domain/snapshot"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.Snapshot) error {
	entriesJSON, err := marshalSnapshotEntries(snap.Entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot entries: %w", err)
	}

	model := snapshotInsertModel{
		PublicID:   snap.ID,
		LeagueID:   snap.LeagueID,
		Season:     snap.Season,
		Reason:     snap.Reason,
		JobID:      optionalString(snap.JobID),
		EntryCount: snap.EntryCount,
		Entries:    entriesJSON,
		CreatedAt:  snap.CreatedAt,
	}

	query, args, err := qb.InsertModel("standings_snapshots", model, `ON CONFLICT (public_id)
DO UPDATE SET
    reason = EXCLUDED.reason,
    job_id = EXCLUDED.job_id,
    entry_count = EXCLUDED.entry_count,
    entries = EXCLUDED.entries,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert snapshot query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot id=%s: %w", snap.ID, err)
	}

	return nil
}

func (r *SnapshotRepository) GetByID(ctx context.Context, snapshotID string) (snapshot.Snapshot, bool, error) {
	query, args, err := qb.Select("*").From("standings_snapshots").
		Where(
			qb.Eq("public_id", snapshotID),
			qb.Live(),
		).
		ToSQL()
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("build get snapshot by id query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return snapshot.Snapshot{}, false, nil
		}
		return snapshot.Snapshot{}, false, fmt.Errorf("get snapshot by id: %w", err)
	}

	snap, err := snapshotFromRow(row)
	if err != nil {
		return snapshot.Snapshot{}, false, err
	}

	return snap, true, nil
}

func (r *SnapshotRepository) List(ctx context.Context, leagueID, season string, limit int) ([]snapshot.Snapshot, error) {
	conditions := []qb.Condition{qb.Live()}
	if leagueID != "" {
		conditions = append(conditions, qb.Eq("league_public_id", leagueID))
	}
	if season != "" {
		conditions = append(conditions, qb.Eq("season", season))
	}

	builder := qb.Select("*").From("standings_snapshots").
		Where(conditions...).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshots query: %w", err)
	}

	var rows []snapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]snapshot.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := snapshotFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}

	return out, nil
}

func (r *SnapshotRepository) DeleteOldest(ctx context.Context, leagueID, season string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	query, args, err := qb.Select("id").From("standings_snapshots").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season", season),
			qb.Live(),
		).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build list snapshot ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return 0, fmt.Errorf("list snapshot ids: %w", err)
	}
	if len(ids) <= keep {
		return 0, nil
	}

	doomed := make([]any, 0, len(ids)-keep)
	for _, id := range ids[keep:] {
		doomed = append(doomed, id)
	}

	deleteQuery, deleteArgs, err := qb.Update("standings_snapshots").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.In("id", doomed),
			qb.Live(),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete oldest snapshots query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return 0, fmt.Errorf("delete oldest snapshots: %w", err)
	}

	return len(doomed), nil
}
