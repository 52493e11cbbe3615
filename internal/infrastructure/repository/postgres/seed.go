package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footdata/standings-engine/internal/infrastructure/repository/memory"
	qb "github.com/footdata/standings-engine/internal/platform/querybuilder"
)

type leagueSeedRow struct {
	PublicID      string `db:"public_id"`
	Name          string `db:"name"`
	CountryCode   string `db:"country_code"`
	CurrentSeason string `db:"current_season"`
	FeedRefID     int64  `db:"feed_ref_id"`
}

type teamSeedRow struct {
	PublicID string `db:"public_id"`
	LeagueID string `db:"league_public_id"`
	Name     string `db:"name"`
	Short    string `db:"short"`
}

// BootstrapSeed loads the demo leagues, teams and matches into an empty
// database so a fresh deployment has something to compute. A database that
// already holds leagues is left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	empty, err := leaguesTableEmpty(ctx, db)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues() {
		row := leagueSeedRow{
			PublicID:      l.ID,
			Name:          l.Name,
			CountryCode:   l.CountryCode,
			CurrentSeason: l.CurrentSeason,
			FeedRefID:     l.FeedRefID,
		}
		if err := seedExec(ctx, tx, "league "+l.ID, "leagues", row); err != nil {
			return err
		}
	}

	for _, t := range memory.SeedTeams() {
		row := teamSeedRow{PublicID: t.ID, LeagueID: t.LeagueID, Name: t.Name, Short: t.Short}
		if err := seedExec(ctx, tx, "team "+t.ID, "teams", row); err != nil {
			return err
		}
	}

	for _, m := range memory.SeedMatches() {
		row := matchInsertModel{
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
		if err := seedExec(ctx, tx, "match "+m.ID, "matches", row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap seed: %w", err)
	}

	return nil
}

func leaguesTableEmpty(ctx context.Context, db *sqlx.DB) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("leagues").Where(qb.Live()).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build seed guard query: %w", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check leagues before seeding: %w", err)
	}

	return count == 0, nil
}

// seedExec inserts one demo row; rows that already exist are kept as-is.
func seedExec(ctx context.Context, tx *sqlx.Tx, label, table string, model any) error {
	query, args, err := qb.InsertModel(table, model, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build seed %s: %w", label, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed %s: %w", label, err)
	}
	return nil
}
