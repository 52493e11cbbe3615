package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/snapshot"
	"github.com/footdata/standings-engine/internal/domain/standings"
)

type SnapshotRepository struct {
	mu    sync.RWMutex
	items map[string]snapshot.Snapshot
	// orders keeps insertion order, oldest first.
	orders []string
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{items: make(map[string]snapshot.Snapshot)}
}

func (r *SnapshotRepository) Save(_ context.Context, snap snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[snap.ID]; !ok {
		r.orders = append(r.orders, snap.ID)
	}
	r.items[snap.ID] = cloneSnapshot(snap)

	return nil
}

func (r *SnapshotRepository) GetByID(_ context.Context, snapshotID string) (snapshot.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.items[snapshotID]
	if !ok {
		return snapshot.Snapshot{}, false, nil
	}

	return cloneSnapshot(snap), true, nil
}

func (r *SnapshotRepository) List(_ context.Context, leagueID, season string, limit int) ([]snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]snapshot.Snapshot, 0, limit)
	for idx := len(r.orders) - 1; idx >= 0; idx-- {
		snap := r.items[r.orders[idx]]
		if leagueID != "" && snap.LeagueID != leagueID {
			continue
		}
		if season != "" && snap.Season != season {
			continue
		}

		out = append(out, cloneSnapshot(snap))
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}

func (r *SnapshotRepository) DeleteOldest(_ context.Context, leagueID, season string, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matching := make([]string, 0, len(r.orders))
	for _, id := range r.orders {
		snap := r.items[id]
		if snap.LeagueID == leagueID && snap.Season == season {
			matching = append(matching, id)
		}
	}
	if keep < 0 {
		keep = 0
	}
	if len(matching) <= keep {
		return 0, nil
	}

	doomed := matching[:len(matching)-keep]
	for _, id := range doomed {
		delete(r.items, id)
	}

	kept := r.orders[:0]
	for _, id := range r.orders {
		if _, ok := r.items[id]; ok {
			kept = append(kept, id)
		}
	}
	r.orders = kept

	return len(doomed), nil
}

func cloneSnapshot(snap snapshot.Snapshot) snapshot.Snapshot {
	out := snap
	out.Entries = append([]standings.TableEntry(nil), snap.Entries...)

	return out
}
