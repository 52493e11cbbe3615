package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/standings"
)

type StandingsRepository struct {
	mu             sync.RWMutex
	tablesBySeason map[string][]standings.TableEntry
}

func NewStandingsRepository() *StandingsRepository {
	return &StandingsRepository{tablesBySeason: make(map[string][]standings.TableEntry)}
}

func (r *StandingsRepository) ListBySeason(_ context.Context, leagueID, season string) ([]standings.TableEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.tablesBySeason[seasonKey(leagueID, season)]
	out := make([]standings.TableEntry, 0, len(entries))
	out = append(out, entries...)

	return out, nil
}

// ReplaceTable swaps the whole season table in one step so readers never
// observe a half-written table.
func (r *StandingsRepository) ReplaceTable(_ context.Context, leagueID, season string, entries []standings.TableEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]standings.TableEntry, 0, len(entries))
	next = append(next, entries...)
	r.tablesBySeason[seasonKey(leagueID, season)] = next

	return nil
}
