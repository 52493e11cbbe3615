package postgres

import (
	"time"

	"github.com/footdata/standings-engine/internal/domain/standings"
)

type standingsTableModel struct {
	ID             int64      `db:"id"`
	LeagueID       string     `db:"league_public_id"`
	Season         string     `db:"season"`
	TeamID         string     `db:"team_public_id"`
	Position       int        `db:"position"`
	Played         int        `db:"played"`
	Won            int        `db:"won"`
	Drawn          int        `db:"drawn"`
	Lost           int        `db:"lost"`
	GoalsFor       int        `db:"goals_for"`
	GoalsAgainst   int        `db:"goals_against"`
	GoalDifference int        `db:"goal_difference"`
	Points         int        `db:"points"`
	ComputedAt     time.Time  `db:"computed_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type standingsInsertModel struct {
	LeagueID       string    `db:"league_public_id"`
	Season         string    `db:"season"`
	TeamID         string    `db:"team_public_id"`
	Position       int       `db:"position"`
	Played         int       `db:"played"`
	Won            int       `db:"won"`
	Drawn          int       `db:"drawn"`
	Lost           int       `db:"lost"`
	GoalsFor       int       `db:"goals_for"`
	GoalsAgainst   int       `db:"goals_against"`
	GoalDifference int       `db:"goal_difference"`
	Points         int       `db:"points"`
	ComputedAt     time.Time `db:"computed_at"`
}

func tableEntryFromRow(row standingsTableModel) standings.TableEntry {
	return standings.TableEntry{
		LeagueID:       row.LeagueID,
		Season:         row.Season,
		TeamID:         row.TeamID,
		Position:       row.Position,
		Played:         row.Played,
		Won:            row.Won,
		Drawn:          row.Drawn,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
		ComputedAt:     row.ComputedAt,
	}
}
