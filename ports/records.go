package ports

import (
	"context"

	"github.com/alanbarret/wallet-attendance-system/core"
)

// RecordStore persists the attendance ledger. Save must be atomic from the
// perspective of a concurrent reader: a crashed or aborted write may never
// leave a half-written set behind.
type RecordStore interface {
	// Load reads every persisted record. A store that has never been
	// written returns an empty slice, not an error.
	Load(ctx context.Context) ([]core.AttendanceRecord, error)

	// Save durably replaces the full record set.
	Save(ctx context.Context, records []core.AttendanceRecord) error
}
