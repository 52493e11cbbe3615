package standings

import "context"

// Repository reads and replaces season tables. ReplaceTable swaps the
// whole table in one step so readers never observe a half-written ranking.
type Repository interface {
	ListBySeason(ctx context.Context, leagueID, season string) ([]TableEntry, error)
	ReplaceTable(ctx context.Context, leagueID, season string, entries []TableEntry) error
}
