package standings

import "time"

// TableEntry is one ranked row of a league season table.
type TableEntry struct {
	LeagueID       string
	Season         string
	TeamID         string
	Position       int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	ComputedAt     time.Time
}
