package league

import "context"

// Repository serves league reads for the API and the recalculation
// pipeline. GetByID reports absence through the bool, not an error.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
}
