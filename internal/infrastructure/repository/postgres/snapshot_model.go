package postgres

import (
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
)

type snapshotTableModel struct {
	ID         int64          `db:"id"`
	PublicID   string         `db:"public_id"`
	LeagueID   string         `db:"league_public_id"`
	Season     string         `db:"season"`
	Reason     string         `db:"reason"`
	JobID      sql.NullString `db:"job_id"`
	EntryCount int            `db:"entry_count"`
	Entries    string         `db:"entries"`
	CreatedAt  time.Time      `db:"created_at"`
	DeletedAt  *time.Time     `db:"deleted_at"`
}

type snapshotInsertModel struct {
	PublicID   string    `db:"public_id"`
	LeagueID   string    `db:"league_public_id"`
	Season     string    `db:"season"`
	Reason     string    `db:"reason"`
	JobID      *string   `db:"job_id"`
	EntryCount int       `db:"entry_count"`
	Entries    string    `db:"entries"`
	CreatedAt  time.Time `db:"created_at"`
}

// snapshotEntryJSON is the JSONB wire shape of one table row inside a
// snapshot. Kept separate from the domain struct so column renames never
// silently change stored payloads.
type snapshotEntryJSON struct {
	TeamID         string    `json:"team_id"`
	Position       int       `json:"position"`
	Played         int       `json:"played"`
	Won            int       `json:"won"`
	Drawn          int       `json:"drawn"`
	Lost           int       `json:"lost"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	Points         int       `json:"points"`
	ComputedAt     time.Time `json:"computed_at"`
}

func marshalSnapshotEntries(entries []standings.TableEntry) (string, error) {
	out := make([]snapshotEntryJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, snapshotEntryJSON{
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
		})
	}

	raw, err := jsoniter.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func snapshotFromRow(row snapshotTableModel) (snapshot.Snapshot, error) {
	var rawEntries []snapshotEntryJSON
	if row.Entries != "" {
		if err := jsoniter.Unmarshal([]byte(row.Entries), &rawEntries); err != nil {
			return snapshot.Snapshot{}, fmt.Errorf("unmarshal snapshot entries id=%s: %w", row.PublicID, err)
		}
	}

	entries := make([]standings.TableEntry, 0, len(rawEntries))
	for _, entry := range rawEntries {
		entries = append(entries, standings.TableEntry{
			LeagueID:       row.LeagueID,
			Season:         row.Season,
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
		})
	}

	return snapshot.Snapshot{
		ID:         row.PublicID,
		LeagueID:   row.LeagueID,
		Season:     row.Season,
		Reason:     row.Reason,
		JobID:      row.JobID.String,
		EntryCount: row.EntryCount,
		CreatedAt:  row.CreatedAt,
		Entries:    entries,
	}, nil
}
