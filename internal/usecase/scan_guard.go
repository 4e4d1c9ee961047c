package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/harpa/backend/internal/domain"
)

// ScanGuard drops scanner callbacks that repeat a payload inside the debounce
// window. It sits in front of the matcher; the matcher itself has no notion
// of a scan in progress.
type ScanGuard struct {
	cache  domain.CacheRepository
	window time.Duration
}

// NewScanGuard returns a guard backed by cache. A non-positive window
// disables it.
func NewScanGuard(cache domain.CacheRepository, window time.Duration) *ScanGuard {
	return &ScanGuard{cache: cache, window: window}
}

// Admit records payload and reports whether it should be processed.
func (g *ScanGuard) Admit(ctx context.Context, payload string) bool {
	if g == nil || g.cache == nil || g.window <= 0 {
		return true
	}

	key := "scan:" + strings.TrimSpace(payload)
	seen, err := g.cache.Exists(ctx, key)
	if err == nil && seen {
		return false
	}
	// A failing cache must not block scanning.
	_ = g.cache.Set(ctx, key, time.Now().UnixMilli(), g.window)
	return true
}
