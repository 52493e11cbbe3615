package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/team"
)

// TeamRepository answers the one question the calculator asks of teams: the
// full roster registered to a league. Rosters keep their seed order.
type TeamRepository struct {
	mu    sync.RWMutex
	teams []team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	owned := make([]team.Team, len(teams))
	copy(owned, teams)

	return &TeamRepository{teams: owned}
}

func (r *TeamRepository) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, t := range r.teams {
		if t.LeagueID == leagueID {
			out = append(out, t)
		}
	}

	return out, nil
}
