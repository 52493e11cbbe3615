package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footdata/standings-engine/internal/domain/match"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

// finishedStatusValues mirrors match.IsFinishedStatus so the database can
// filter without loading every row.
var finishedStatusValues = []any{match.StatusFinished, "FT", "AET", "PEN"}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) ListBySeason(ctx context.Context, leagueID, season string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season", season),
			qb.Live(),
		).
		OrderBy("matchday", "kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by season query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches by season: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}

	return out, nil
}

func (r *MatchRepository) ListFinished(ctx context.Context, leagueID, season string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season", season),
			qb.In("status", finishedStatusValues),
			qb.Live(),
		).
		OrderBy("matchday", "kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select finished matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select finished matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}

	return out, nil
}

func (r *MatchRepository) RecordResult(ctx context.Context, m match.Match) error {
	model := matchInsertModel{
		PublicID:   m.ID,
		LeagueID:   m.LeagueID,
		Season:     m.Season,
		Matchday:   m.Matchday,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		HomeScore:  intPtrToNullInt64(m.HomeScore),
		AwayScore:  intPtrToNullInt64(m.AwayScore),
		Status:     m.Status,
		KickoffAt:  m.KickoffAt,
		FinishedAt: m.FinishedAt,
	}

	query, args, err := qb.InsertModel("matches", model, `ON CONFLICT (public_id)
DO UPDATE SET
    league_public_id = EXCLUDED.league_public_id,
    season = EXCLUDED.season,
    matchday = EXCLUDED.matchday,
    home_team_public_id = EXCLUDED.home_team_public_id,
    away_team_public_id = EXCLUDED.away_team_public_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    status = EXCLUDED.status,
    kickoff_at = EXCLUDED.kickoff_at,
    finished_at = EXCLUDED.finished_at,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match id=%s: %w", m.ID, err)
	}

	return nil
}
