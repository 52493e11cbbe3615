package team

import "context"

// Repository lists the teams registered to a league, which the calculator
// uses as the complete row set for a season table.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
}
