package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footdata/standings-engine/internal/domain/standings"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

type StandingsRepository struct {
	db *sqlx.DB
}

func NewStandingsRepository(db *sqlx.DB) *StandingsRepository {
	return &StandingsRepository{db: db}
}

func (r *StandingsRepository) ListBySeason(ctx context.Context, leagueID, season string) ([]standings.TableEntry, error) {
	query, args, err := qb.Select("*").From("league_tables").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season", season),
			qb.Live(),
		).
		OrderBy("position", "points DESC", "goal_difference DESC", "team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league table query: %w", err)
	}

	var rows []standingsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list league table: %w", err)
	}

	out := make([]standings.TableEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, tableEntryFromRow(row))
	}

	return out, nil
}

// ReplaceTable soft-deletes the current season table and writes the new rows
// inside one transaction, so readers see either the old table or the new one.
func (r *StandingsRepository) ReplaceTable(ctx context.Context, leagueID, season string, entries []standings.TableEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace league table: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.Update("league_tables").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season", season),
			qb.Live(),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear league table query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear league table: %w", err)
	}

	for _, entry := range entries {
		insertModel := standingsInsertModel{
			LeagueID:       leagueID,
			Season:         season,
			TeamID:         entry.TeamID,
			Position:       entry.Position,
			Played:         entry.Played,
			Won:            entry.Won,
			Drawn:          entry.Drawn,
			Lost:           entry.Lost,
			GoalsFor:       entry.GoalsFor,
			GoalsAgainst:   entry.GoalsAgainst,
			GoalDifference: entry.GoalDifference,
			Points:         entry.Points,
			ComputedAt:     entry.ComputedAt,
		}
		query, args, err := qb.InsertModel("league_tables", insertModel, `ON CONFLICT (league_public_id, season, team_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    position = EXCLUDED.position,
    played = EXCLUDED.played,
    won = EXCLUDED.won,
    drawn = EXCLUDED.drawn,
    lost = EXCLUDED.lost,
    goals_for = EXCLUDED.goals_for,
    goals_against = EXCLUDED.goals_against,
    goal_difference = EXCLUDED.goal_difference,
    points = EXCLUDED.points,
    computed_at = EXCLUDED.computed_at,
    updated_at = NOW(),
    deleted_at = NULL`)
		if err != nil {
			return fmt.Errorf("build upsert league table row query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert league table row team=%s: %w", entry.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace league table tx: %w", err)
	}
	return nil
}
