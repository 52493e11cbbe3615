package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
	"github.com/footdata/standings-engine/internal/domain/league"
	"github.com/footdata/standings-engine/internal/domain/match"
	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
	"github.com/footdata/standings-engine/internal/domain/team"
)

type fakeLeagueRepo struct {
	leagues map[string]league.League
}

func newFakeLeagueRepo(leagues ...league.League) *fakeLeagueRepo {
	byID := make(map[string]league.League, len(leagues))
	for _, l := range leagues {
		byID[l.ID] = l
	}
	return &fakeLeagueRepo{leagues: byID}
}

func (r *fakeLeagueRepo) List(_ context.Context) ([]league.League, error) {
	out := make([]league.League, 0, len(r.leagues))
	for _, l := range r.leagues {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLeagueRepo) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	l, ok := r.leagues[leagueID]
	return l, ok, nil
}

type fakeTeamRepo struct {
	teams map[string][]team.Team
	err   error
}

func (r *fakeTeamRepo) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]team.Team(nil), r.teams[leagueID]...), nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string][]match.Match
	err     error
}

func matchKey(leagueID, season string) string {
	return leagueID + "|" + season
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string][]match.Match)}
}

func (r *fakeMatchRepo) ListBySeason(_ context.Context, leagueID, season string) ([]match.Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]match.Match(nil), r.matches[matchKey(leagueID, season)]...), nil
}

func (r *fakeMatchRepo) ListFinished(ctx context.Context, leagueID, season string) ([]match.Match, error) {
	all, err := r.ListBySeason(ctx, leagueID, season)
	if err != nil {
		return nil, err
	}
	out := make([]match.Match, 0, len(all))
	for _, m := range all {
		if match.IsFinishedStatus(m.Status) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) RecordResult(_ context.Context, m match.Match) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := matchKey(m.LeagueID, m.Season)
	for i, existing := range r.matches[key] {
		if existing.ID == m.ID {
			r.matches[key][i] = m
			return nil
		}
	}
	r.matches[key] = append(r.matches[key], m)
	return nil
}

type fakeStandingsRepo struct {
	mu         sync.Mutex
	tables     map[string][]standings.TableEntry
	listErr    error
	replaceErr error
	// failReplaces makes the next N ReplaceTable calls fail, then recover.
	failReplaces int
	replaces     int
}

func newFakeStandingsRepo() *fakeStandingsRepo {
	return &fakeStandingsRepo{tables: make(map[string][]standings.TableEntry)}
}

func (r *fakeStandingsRepo) ListBySeason(_ context.Context, leagueID, season string) ([]standings.TableEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]standings.TableEntry(nil), r.tables[matchKey(leagueID, season)]...), nil
}

func (r *fakeStandingsRepo) ReplaceTable(_ context.Context, leagueID, season string, entries []standings.TableEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces++
	if r.failReplaces > 0 {
		r.failReplaces--
		return fmt.Errorf("table write refused")
	}
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.tables[matchKey(leagueID, season)] = append([]standings.TableEntry(nil), entries...)
	return nil
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]snapshot.Snapshot
	order     []string
	saveErr   error
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]snapshot.Snapshot)}
}

func (r *fakeSnapshotRepo) Save(_ context.Context, snap snapshot.Snapshot) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.ID] = snap
	r.order = append(r.order, snap.ID)
	return nil
}

func (r *fakeSnapshotRepo) GetByID(_ context.Context, snapshotID string) (snapshot.Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[snapshotID]
	return snap, ok, nil
}

func (r *fakeSnapshotRepo) List(_ context.Context, leagueID, season string, limit int) ([]snapshot.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]snapshot.Snapshot, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		snap := r.snapshots[r.order[i]]
		if leagueID != "" && snap.LeagueID != leagueID {
			continue
		}
		if season != "" && snap.Season != season {
			continue
		}
		out = append(out, snap)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSnapshotRepo) DeleteOldest(_ context.Context, leagueID, season string, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matching []string
	for _, id := range r.order {
		snap := r.snapshots[id]
		if snap.LeagueID == leagueID && snap.Season == season {
			matching = append(matching, id)
		}
	}
	deleted := 0
	for len(matching)-deleted > keep {
		victim := matching[deleted]
		delete(r.snapshots, victim)
		for i, id := range r.order {
			if id == victim {
				r.order = append(r.order[:i:i], r.order[i+1:]...)
				break
			}
		}
		deleted++
	}
	return deleted, nil
}

type fakeDispatchRepo struct {
	mu     sync.Mutex
	events []calcjob.DispatchEvent
	err    error
}

func (r *fakeDispatchRepo) UpsertEvent(_ context.Context, event calcjob.DispatchEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeDispatchRepo) statuses() []calcjob.DispatchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calcjob.DispatchStatus, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Status)
	}
	return out
}

type seqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	prefix := g.prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%03d", prefix, g.n), nil
}
