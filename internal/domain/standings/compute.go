package standings

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/footdata/standings-engine/internal/domain/match"
)

const (
	pointsPerWin  = 3
	pointsPerDraw = 1
)

var (
	ErrNoTeams           = errors.New("at least one team is required")
	ErrEmptyTeamID       = errors.New("team id cannot be empty")
	ErrDuplicateTeam     = errors.New("duplicate team id")
	ErrUnknownTeam       = errors.New("match references a team outside the league")
	ErrInvalidMatch      = errors.New("invalid match data")
	ErrInvariantViolated = errors.New("computed table violates invariants")
)

// Compute rebuilds the complete table for one league season from scratch.
// Only finished matches contribute; every listed team gets a row even with
// zero matches played. The same inputs always produce the same table
// regardless of input order.
func Compute(leagueID, season string, matches []match.Match, teamIDs []string) ([]TableEntry, error) {
	if len(teamIDs) == 0 {
		return nil, ErrNoTeams
	}

	rows := make(map[string]*TableEntry, len(teamIDs))
	for _, teamID := range teamIDs {
		if strings.TrimSpace(teamID) == "" {
			return nil, ErrEmptyTeamID
		}
		if _, exists := rows[teamID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, teamID)
		}
		rows[teamID] = &TableEntry{
			LeagueID: leagueID,
			Season:   season,
			TeamID:   teamID,
		}
	}

	for _, m := range matches {
		if !match.IsFinishedStatus(m.Status) {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: match %s: %v", ErrInvalidMatch, m.ID, err)
		}
		if m.LeagueID != leagueID || m.Season != season {
			return nil, fmt.Errorf("%w: match %s belongs to %s/%s", ErrInvalidMatch, m.ID, m.LeagueID, m.Season)
		}

		home, ok := rows[m.HomeTeamID]
		if !ok {
			return nil, fmt.Errorf("%w: %s in match %s", ErrUnknownTeam, m.HomeTeamID, m.ID)
		}
		away, ok := rows[m.AwayTeamID]
		if !ok {
			return nil, fmt.Errorf("%w: %s in match %s", ErrUnknownTeam, m.AwayTeamID, m.ID)
		}

		applyResult(home, away, *m.HomeScore, *m.AwayScore)
	}

	entries := make([]TableEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row)
	}
	sortEntries(entries)
	for i := range entries {
		entries[i].Position = i + 1
	}

	return entries, nil
}

func applyResult(home, away *TableEntry, homeScore, awayScore int) {
	home.Played++
	away.Played++
	home.GoalsFor += homeScore
	home.GoalsAgainst += awayScore
	away.GoalsFor += awayScore
	away.GoalsAgainst += homeScore
	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst

	switch {
	case homeScore > awayScore:
		home.Won++
		away.Lost++
	case homeScore < awayScore:
		away.Won++
		home.Lost++
	default:
		home.Drawn++
		away.Drawn++
	}

	home.Points = pointsPerWin*home.Won + pointsPerDraw*home.Drawn
	away.Points = pointsPerWin*away.Won + pointsPerDraw*away.Drawn
}

// sortEntries orders rows by points, goal difference, goals scored, then
// team id so equal records stay deterministic.
func sortEntries(entries []TableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return lessEntry(entries[i], entries[j])
	})
}

func lessEntry(a, b TableEntry) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}

	return a.TeamID < b.TeamID
}

// Verify checks the arithmetic and ordering invariants of a computed table
// before it is allowed to replace the persisted one.
func Verify(entries []TableEntry) error {
	var totalFor, totalAgainst, totalWon, totalDrawn, totalLost int

	for i, row := range entries {
		if row.Played < 0 || row.Won < 0 || row.Drawn < 0 || row.Lost < 0 ||
			row.GoalsFor < 0 || row.GoalsAgainst < 0 || row.Points < 0 {
			return fmt.Errorf("%w: negative counter for team %s", ErrInvariantViolated, row.TeamID)
		}
		if row.Played != row.Won+row.Drawn+row.Lost {
			return fmt.Errorf("%w: played != won+drawn+lost for team %s", ErrInvariantViolated, row.TeamID)
		}
		if row.GoalDifference != row.GoalsFor-row.GoalsAgainst {
			return fmt.Errorf("%w: goal difference mismatch for team %s", ErrInvariantViolated, row.TeamID)
		}
		if row.Points != pointsPerWin*row.Won+pointsPerDraw*row.Drawn {
			return fmt.Errorf("%w: points mismatch for team %s", ErrInvariantViolated, row.TeamID)
		}
		if row.Position != i+1 {
			return fmt.Errorf("%w: positions are not contiguous at rank %d", ErrInvariantViolated, i+1)
		}
		if i > 0 && lessEntry(row, entries[i-1]) {
			return fmt.Errorf("%w: rows out of order at rank %d", ErrInvariantViolated, i+1)
		}

		totalFor += row.GoalsFor
		totalAgainst += row.GoalsAgainst
		totalWon += row.Won
		totalDrawn += row.Drawn
		totalLost += row.Lost
	}

	if totalFor != totalAgainst {
		return fmt.Errorf("%w: goals for (%d) and against (%d) do not balance", ErrInvariantViolated, totalFor, totalAgainst)
	}
	if totalWon != totalLost {
		return fmt.Errorf("%w: wins (%d) and losses (%d) do not balance", ErrInvariantViolated, totalWon, totalLost)
	}
	if totalDrawn%2 != 0 {
		return fmt.Errorf("%w: drawn count (%d) is odd", ErrInvariantViolated, totalDrawn)
	}

	return nil
}
