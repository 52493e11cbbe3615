package match

import "context"

// Repository serves fixture reads and result writes. ListFinished is the
// calculator's input; ListBySeason backs the health report's match counts.
type Repository interface {
	ListBySeason(ctx context.Context, leagueID, season string) ([]Match, error)
	ListFinished(ctx context.Context, leagueID, season string) ([]Match, error)
	RecordResult(ctx context.Context, m Match) error
}
