package postgres

import (
	"database/sql"
	"time"

	"github.com/footdata/standings-engine/internal/domain/match"
)

type matchTableModel struct {
	ID         int64         `db:"id"`
	PublicID   string        `db:"public_id"`
	LeagueID   string        `db:"league_public_id"`
	Season     string        `db:"season"`
	Matchday   int           `db:"matchday"`
	HomeTeamID string        `db:"home_team_public_id"`
	AwayTeamID string        `db:"away_team_public_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	Status     string        `db:"status"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	FinishedAt sql.NullTime  `db:"finished_at"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
	DeletedAt  *time.Time    `db:"deleted_at"`
}

type matchInsertModel struct {
	PublicID   string        `db:"public_id"`
	LeagueID   string        `db:"league_public_id"`
	Season     string        `db:"season"`
	Matchday   int           `db:"matchday"`
	HomeTeamID string        `db:"home_team_public_id"`
	AwayTeamID string        `db:"away_team_public_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	Status     string        `db:"status"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	FinishedAt *time.Time    `db:"finished_at"`
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:         row.PublicID,
		LeagueID:   row.LeagueID,
		Season:     row.Season,
		Matchday:   row.Matchday,
		HomeTeamID: row.HomeTeamID,
		AwayTeamID: row.AwayTeamID,
		HomeScore:  nullInt64ToIntPtr(row.HomeScore),
		AwayScore:  nullInt64ToIntPtr(row.AwayScore),
		Status:     row.Status,
		KickoffAt:  row.KickoffAt,
		FinishedAt: nullTimeToTimePtr(row.FinishedAt),
	}
}
