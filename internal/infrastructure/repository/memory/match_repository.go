package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/match"
)

type MatchRepository struct {
	mu              sync.RWMutex
	matchesBySeason map[string][]match.Match
}

func NewMatchRepository(matches []match.Match) *MatchRepository {
	matchesBySeason := make(map[string][]match.Match)
	for _, item := range matches {
		key := seasonKey(item.LeagueID, item.Season)
		matchesBySeason[key] = append(matchesBySeason[key], item)
	}

	return &MatchRepository{matchesBySeason: matchesBySeason}
}

func (r *MatchRepository) ListBySeason(_ context.Context, leagueID, season string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.matchesBySeason[seasonKey(leagueID, season)]
	out := make([]match.Match, 0, len(items))
	out = append(out, items...)

	return out, nil
}

func (r *MatchRepository) ListFinished(_ context.Context, leagueID, season string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.matchesBySeason[seasonKey(leagueID, season)]
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		if match.IsFinishedStatus(item.Status) {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *MatchRepository) RecordResult(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := seasonKey(m.LeagueID, m.Season)
	rows := r.matchesBySeason[key]
	for idx := range rows {
		if rows[idx].ID == m.ID {
			rows[idx] = m
			return nil
		}
	}
	r.matchesBySeason[key] = append(rows, m)

	return nil
}

func seasonKey(leagueID, season string) string {
	return leagueID + "|" + season
}
