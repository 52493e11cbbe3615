package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(15 * time.Millisecond)
		return "table-rows", nil
	}

	const readers = 24
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(readers)

	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "table:idn-liga-1:2025/2026", loader)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
				return
			}
			if got, _ := v.(string); got != "table-rows" {
				t.Errorf("unexpected value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ServesCachedValue(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return "league-rows", nil
	}

	for i := 0; i < 3; i++ {
		if _, err := store.GetOrLoad(context.Background(), "league:list", loader); err != nil {
			t.Fatalf("GetOrLoad %d: %v", i, err)
		}
	}

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_EmptyKeyBypassesCache(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return "uncacheable", nil
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "", loader); err != nil {
			t.Fatalf("GetOrLoad %d: %v", i, err)
		}
	}

	if got := loads.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2 for an empty key", got)
	}
}

func TestStore_GetOrLoad_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		if loads.Add(1) == 1 {
			return nil, errors.New("backend down")
		}
		return "recovered", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "health:latest", loader); err == nil {
		t.Fatal("expected the first load to fail")
	}

	v, err := store.GetOrLoad(context.Background(), "health:latest", loader)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if v != "recovered" {
		t.Fatalf("second load returned %v, want recovered", v)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "league:id:idn-liga-1", "v1")
	if _, ok := store.Get(ctx, "league:id:idn-liga-1"); !ok {
		t.Fatal("expected fresh entry to be served")
	}

	time.Sleep(25 * time.Millisecond)
	if _, ok := store.Get(ctx, "league:id:idn-liga-1"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()

	store.Set(ctx, "match:idn-liga-1:2025/2026:list", "a")
	store.Set(ctx, "match:idn-liga-1:2025/2026:finished", "b")
	store.Set(ctx, "match:eng-premier-league:2025/2026:list", "c")

	store.DeletePrefix(ctx, "match:idn-liga-1:2025/2026:")

	if _, ok := store.Get(ctx, "match:idn-liga-1:2025/2026:list"); ok {
		t.Fatal("expected list key to be dropped")
	}
	if _, ok := store.Get(ctx, "match:idn-liga-1:2025/2026:finished"); ok {
		t.Fatal("expected finished key to be dropped")
	}
	if _, ok := store.Get(ctx, "match:eng-premier-league:2025/2026:list"); !ok {
		t.Fatal("other league's entries must survive")
	}
}
