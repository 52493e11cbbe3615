package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/league"
)

// LeagueRepository serves the seeded league catalog. The catalog is small
// enough that lookups scan the slice, and List preserves seed order without
// extra bookkeeping.
type LeagueRepository struct {
	mu      sync.RWMutex
	leagues []league.League
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	owned := make([]league.League, len(leagues))
	copy(owned, leagues)

	return &LeagueRepository{leagues: owned}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, len(r.leagues))
	copy(out, r.leagues)

	return out, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.leagues {
		if l.ID == leagueID {
			return l, true, nil
		}
	}

	return league.League{}, false, nil
}
