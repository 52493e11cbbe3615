package memory

import (
	"context"
	"sync"

	"github.com/footdata/standings-engine/internal/domain/calcjob"
)

type DispatchRepository struct {
	mu     sync.RWMutex
	events map[string]calcjob.DispatchEvent
	orders []string
}

func NewDispatchRepository() *DispatchRepository {
	return &DispatchRepository{events: make(map[string]calcjob.DispatchEvent)}
}

func (r *DispatchRepository) UpsertEvent(_ context.Context, event calcjob.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.DispatchID]; !ok {
		r.orders = append(r.orders, event.DispatchID)
	}
	r.events[event.DispatchID] = event

	return nil
}

// Events returns recorded events in insertion order.
func (r *DispatchRepository) Events(_ context.Context) ([]calcjob.DispatchEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]calcjob.DispatchEvent, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.events[id])
	}

	return out, nil
}
