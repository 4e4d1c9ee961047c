package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harpa/backend/internal/domain"
)

// newTestCache returns a cache on a controllable clock.
func newTestCache(t *testing.T) (*MemoryCache, *time.Time) {
	t.Helper()
	cache := NewMemoryCache(time.Hour)
	t.Cleanup(func() { _ = cache.Close() })

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "store and retrieve string", key: "scan:999", value: "999"},
		{name: "store and retrieve timestamp", key: "scan:123", value: int64(1700000000000)},
		{name: "store and retrieve struct", key: "bay", value: domain.Progress{Done: 1, Total: 2, Percent: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := cache.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache, now := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "scan:999", true, 2*time.Second)

	*now = now.Add(time.Second)
	if ok, _ := cache.Exists(ctx, "scan:999"); !ok {
		t.Error("entry expired before its TTL")
	}

	*now = now.Add(2 * time.Second)
	if ok, _ := cache.Exists(ctx, "scan:999"); ok {
		t.Error("entry still present after its TTL")
	}
	if _, err := cache.Get(ctx, "scan:999"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}

	cache.removeExpired()
	if cache.Size() != 0 {
		t.Errorf("Size() = %d after sweep, want 0", cache.Size())
	}
}

func TestMemoryCache_NoTTLKeepsEntry(t *testing.T) {
	cache, now := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "pinned", 1, 0)
	*now = now.Add(24 * time.Hour)
	cache.removeExpired()

	if ok, _ := cache.Exists(ctx, "pinned"); !ok {
		t.Error("entry without TTL was dropped")
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "non-existent-key")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "a", 1, time.Minute)
	_ = cache.Set(ctx, "b", 2, time.Minute)

	if err := cache.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := cache.Exists(ctx, "a"); ok {
		t.Error("deleted key still exists")
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", cache.Size())
	}
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(0)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := cache.Set(context.Background(), "k", 1, time.Minute); err != nil {
		t.Errorf("Set() after Close error = %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				_ = cache.Set(ctx, key, j, time.Minute)
				_, _ = cache.Get(ctx, key)
				_, _ = cache.Exists(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() != 1000 {
		t.Errorf("Size() = %d, want 1000", cache.Size())
	}
}
