package ports

import (
	"context"
	"time"
)

// ReplayGuard blocks a single signed token from producing two independent
// ledger mutations inside the reuse window.
type ReplayGuard interface {
	// CheckAndConsume atomically checks whether (identityKey, tokenTimestamp)
	// was already consumed inside the window and, if not, records it.
	// Returns false when an unexpired entry already exists. The check and
	// the insert are a single step with respect to concurrent callers for
	// the same key.
	CheckAndConsume(ctx context.Context, identityKey string, tokenTimestamp int64, now time.Time) (bool, error)
}
