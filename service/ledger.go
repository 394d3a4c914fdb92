package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/ports"
)

// saveTimeout bounds how long a single durable write may take before the
// mutation is treated as failed.
const saveTimeout = 5 * time.Second

// AttendanceLedger owns the per-(employee, date) records and their
// check-in/check-out state machine. Mutations for the same record key are
// serialized on a per-key lock; different employees proceed in parallel.
// Every mutation is written durably before the outcome is returned, and is
// committed to memory only after the write succeeds, so an aborted request
// never leaves a partial record.
type AttendanceLedger struct {
	store  ports.RecordStore
	logger *zap.Logger

	// commitMu serializes durable writes: snapshot, save and map publish
	// are one step, so a commit can never persist a set missing another
	// record that was already acknowledged.
	commitMu sync.Mutex

	mu      sync.RWMutex
	records map[string]core.AttendanceRecord
	locks   map[string]*sync.Mutex
}

// NewAttendanceLedger loads the persisted records and returns a ready
// ledger.
func NewAttendanceLedger(ctx context.Context, store ports.RecordStore, logger *zap.Logger) (*AttendanceLedger, error) {
	existing, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading attendance records: %w", err)
	}

	records := make(map[string]core.AttendanceRecord, len(existing))
	for _, r := range existing {
		records[core.RecordKey(r.EmployeeID, r.Date)] = r
	}

	return &AttendanceLedger{
		store:   store,
		logger:  logger,
		records: records,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Apply runs one verified event through the state machine and returns the
// outcome. All timestamps written to the record come from now, which is the
// ledger's clock, never the client's.
func (l *AttendanceLedger) Apply(ctx context.Context, emp core.Employee, now time.Time, confirmCheckout bool, qrTimestamp int64) (core.Outcome, error) {
	key := core.RecordKey(emp.ID, core.FormatDate(now))

	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	l.mu.RLock()
	record, exists := l.records[key]
	l.mu.RUnlock()

	switch {
	case !exists:
		// First verified event of the day is always a check-in; a stray
		// confirm flag with no open record is ignored.
		record = core.AttendanceRecord{
			ID:           uuid.New().String(),
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Date:         core.FormatDate(now),
			InTime:       core.FormatClock(now),
			InTimestamp:  core.FormatTimestamp(now),
			Status:       core.StatusCheckedIn,
			QRTimestamp:  qrTimestamp,
			Verified:     true,
		}
		if err := l.commit(ctx, key, record); err != nil {
			return core.Outcome{}, err
		}
		l.logger.Info("check-in",
			zap.String("emp_id", emp.ID),
			zap.String("in_time", record.InTime))
		return core.Outcome{
			Kind:         core.OutcomeCheckInSuccess,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			InTime:       record.InTime,
			Status:       record.Status,
			Record:       record,
		}, nil

	case record.CheckedOut():
		// Terminal for the day: report, never mutate.
		return core.Outcome{
			Kind:         core.OutcomeAlreadyCheckedOut,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			InTime:       record.InTime,
			OutTime:      record.OutTime,
			Status:       record.Status,
		}, nil

	case !confirmCheckout:
		// Second scan of the day: propose an out-time but leave the stored
		// record untouched. Abandoning the prompt and scanning again later
		// simply yields a fresh proposal.
		return core.Outcome{
			Kind:         core.OutcomeConfirmCheckoutRequired,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			InTime:       record.InTime,
			OutTime:      core.FormatClock(now),
			Status:       core.StatusPendingCheckout,
		}, nil

	default:
		record.OutTime = core.FormatClock(now)
		record.OutTimestamp = core.FormatTimestamp(now)
		record.Status = core.StatusPresent
		if err := l.commit(ctx, key, record); err != nil {
			return core.Outcome{}, err
		}
		l.logger.Info("check-out",
			zap.String("emp_id", emp.ID),
			zap.String("out_time", record.OutTime))
		return core.Outcome{
			Kind:         core.OutcomeCheckOutSuccess,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			InTime:       record.InTime,
			OutTime:      record.OutTime,
			Status:       record.Status,
			Record:       record,
		}, nil
	}
}

// List returns a snapshot of the fully-committed records, newest date
// first.
func (l *AttendanceLedger) List(ctx context.Context) []core.AttendanceRecord {
	l.mu.RLock()
	out := make([]core.AttendanceRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].InTimestamp < out[j].InTimestamp
	})
	return out
}

// commit makes the mutated record durable and only then publishes it to the
// in-memory map. The write runs on a detached context with its own timeout:
// a caller that aborts mid-request must not leave a half-applied mutation,
// so the write either fully completes (and the late response is dropped by
// the transport) or the record stays as it was.
//
// Commits run one at a time. The store replaces the full record set, so a
// snapshot taken while another commit sits between its save and its map
// publish would persist a set missing that record. Different employees
// still evaluate their state machines in parallel; only this final write
// is serialized.
func (l *AttendanceLedger) commit(ctx context.Context, key string, record core.AttendanceRecord) error {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	snapshot := l.snapshotWith(key, record)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := l.store.Save(saveCtx, snapshot); err != nil {
		l.logger.Error("persist failed", zap.String("record", key), zap.Error(err))
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	l.mu.Lock()
	l.records[key] = record
	l.mu.Unlock()
	return nil
}

// snapshotWith builds the full record set as it will look after the
// mutation, without touching the live map.
func (l *AttendanceLedger) snapshotWith(key string, record core.AttendanceRecord) []core.AttendanceRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.AttendanceRecord, 0, len(l.records)+1)
	for k, r := range l.records {
		if k == key {
			continue
		}
		out = append(out, r)
	}
	out = append(out, record)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (l *AttendanceLedger) keyLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}
