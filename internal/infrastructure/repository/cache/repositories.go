// Package cache wraps the persistent repositories with read-through
// decorators over the process-local TTL store.
package cache

import (
	"context"

	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/domain/standings"
	"github.com/footdata/standings-engine/internal/domain/team"
	basecache "github.com/footdata/standings-engine/internal/platform/cache"
)

// loadSlice memoizes a slice read under key. Hits return a fresh copy so
// callers cannot mutate the cached backing array.
func loadSlice[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	v, err := store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return append([]T(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]T)
	return append([]T(nil), items...), nil
}

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	return loadSlice(ctx, r.cache, "league:list", r.next.List)
}

type leagueLookup struct {
	value  league.League
	exists bool
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "league:id:"+leagueID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return leagueLookup{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(leagueLookup)
	return cached.value, cached.exists, nil
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	return loadSlice(ctx, r.cache, "team:list:"+leagueID, func(ctx context.Context) ([]team.Team, error) {
		return r.next.ListByLeague(ctx, leagueID)
	})
}

type StandingsRepository struct {
	next  standings.Repository
	cache *basecache.Store
}

func NewStandingsRepository(next standings.Repository, cache *basecache.Store) *StandingsRepository {
	return &StandingsRepository{next: next, cache: cache}
}

func (r *StandingsRepository) ListBySeason(ctx context.Context, leagueID, season string) ([]standings.TableEntry, error) {
	return loadSlice(ctx, r.cache, tableKey(leagueID, season), func(ctx context.Context) ([]standings.TableEntry, error) {
		return r.next.ListBySeason(ctx, leagueID, season)
	})
}

// ReplaceTable writes through and drops the cached table so readers pick up
// the new rows on the next request.
func (r *StandingsRepository) ReplaceTable(ctx context.Context, leagueID, season string, entries []standings.TableEntry) error {
	if err := r.next.ReplaceTable(ctx, leagueID, season, entries); err != nil {
		return err
	}

	r.cache.Delete(ctx, tableKey(leagueID, season))
	return nil
}

func tableKey(leagueID, season string) string {
	return "table:" + leagueID + ":" + season
}

type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) ListBySeason(ctx context.Context, leagueID, season string) ([]match.Match, error) {
	return loadSlice(ctx, r.cache, matchKey(leagueID, season)+":list", func(ctx context.Context) ([]match.Match, error) {
		return r.next.ListBySeason(ctx, leagueID, season)
	})
}

func (r *MatchRepository) ListFinished(ctx context.Context, leagueID, season string) ([]match.Match, error) {
	return loadSlice(ctx, r.cache, matchKey(leagueID, season)+":finished", func(ctx context.Context) ([]match.Match, error) {
		return r.next.ListFinished(ctx, leagueID, season)
	})
}

// RecordResult writes through and drops every cached match view for the
// season in one sweep.
func (r *MatchRepository) RecordResult(ctx context.Context, m match.Match) error {
	if err := r.next.RecordResult(ctx, m); err != nil {
		return err
	}

	r.cache.DeletePrefix(ctx, matchKey(m.LeagueID, m.Season)+":")
	return nil
}

func matchKey(leagueID, season string) string {
	return "match:" + leagueID + ":" + season
}
