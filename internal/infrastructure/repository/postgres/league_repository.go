package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footdata/standings-engine/internal/domain/league"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// liveLeagues selects the league columns the domain model carries.
func liveLeagues() *qb.SelectBuilder {
	return qb.Select("public_id", "name", "country_code", "current_season", "feed_ref_id").
		From("leagues").
		Where(qb.Live())
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := liveLeagues().OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build league list query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	query, args, err := liveLeagues().Where(qb.Eq("public_id", leagueID)).ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build league lookup query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league %s: %w", leagueID, err)
	}

	return leagueFromRow(row), true, nil
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:            row.PublicID,
		Name:          row.Name,
		CountryCode:   row.CountryCode,
		CurrentSeason: row.CurrentSeason,
		FeedRefID:     nullInt64ToInt64(row.FeedRefID),
	}
}
