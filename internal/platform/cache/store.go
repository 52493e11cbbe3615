// Package cache provides the process-local TTL store backing the read-through
// repository decorators. League tables change only when a recalculation
// lands, so short TTLs plus explicit invalidation on write keep reads cheap
// without a second cache tier.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/footdata/standings-engine/internal/platform/resilience"
)

type item struct {
	value    any
	deadline time.Time
}

// A zero deadline never expires.
func (it item) expired(now time.Time) bool {
	return !it.deadline.IsZero() && !it.deadline.After(now)
}

// Store is a TTL map with singleflight-guarded loads. A zero ttl disables
// expiry; writers are expected to invalidate explicitly.
type Store struct {
	mu     sync.RWMutex
	items  map[string]item
	ttl    time.Duration
	flight resilience.SingleFlight
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]item),
		ttl:   ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()

	switch {
	case !ok:
		return nil, false
	case it.expired(time.Now()):
		s.Delete(ctx, key)
		return nil, false
	}

	return it.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	it := item{value: value}
	if s.ttl > 0 {
		it.deadline = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeletePrefix drops every key under a prefix, e.g. all cached match views
// for one league season.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader once per key, however
// many callers arrive while the load is in flight. Load errors are not
// cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("nil loader for cache key %q", key)
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		return s.loadAndFill(ctx, key, loader)
	})

	return value, err
}

// loadAndFill re-checks the key before loading; a concurrent caller may have
// filled it while this one waited for the flight slot.
func (s *Store) loadAndFill(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if cached, ok := s.Get(ctx, key); ok {
		return cached, nil
	}

	loaded, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	s.Set(ctx, key, loaded)

	return loaded, nil
}
