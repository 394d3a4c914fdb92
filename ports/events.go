package ports

import (
	"context"

	"github.com/alanbarret/wallet-attendance-system/core"
)

// EventPublisher notifies other systems about committed ledger transitions.
// Publishing is best-effort: a failure is logged, never surfaced to the
// employee, because the record is already durable by the time an event is
// emitted.
type EventPublisher interface {
	PublishCheckIn(ctx context.Context, record core.AttendanceRecord) error
	PublishCheckOut(ctx context.Context, record core.AttendanceRecord) error
}
