// Package replay provides the anti-replay backends: an in-process guard
// for single-instance deployments and a Redis guard for shared state.
package replay

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryGuard tracks consumed (identity, token timestamp) pairs in process
// memory. Entries expire after the reuse window; the cache's Add is the
// atomic check-and-set the guard requires.
type MemoryGuard struct {
	window time.Duration
	cache  *gocache.Cache
}

// NewMemoryGuard creates a guard with the given reuse window. Expired
// entries are swept at half the window so the map stays bounded.
func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		window: window,
		cache:  gocache.New(window, window/2),
	}
}

// CheckAndConsume returns false when the pair was already consumed inside
// the window, and records it otherwise.
func (g *MemoryGuard) CheckAndConsume(ctx context.Context, identityKey string, tokenTimestamp int64, now time.Time) (bool, error) {
	key := entryKey(identityKey, tokenTimestamp)
	if err := g.cache.Add(key, now.Unix(), g.window); err != nil {
		// An unexpired entry already exists.
		return false, nil
	}
	return true, nil
}

func entryKey(identityKey string, tokenTimestamp int64) string {
	return identityKey + ":" + strconv.FormatInt(tokenTimestamp, 10)
}
