// Package records persists the attendance ledger as a JSON file.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/internal/atomicfile"
)

const attendanceFile = "attendance.json"

// FileStore implements ports.RecordStore. Writes go through a temp file and
// rename, so a reader (or a crash) never sees a half-written set. Saves are
// serialized internally as a safety net; the ledger already commits one
// mutation at a time.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to dir/attendance.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, attendanceFile)}
}

// Load reads the full record set. A store that has never been written
// returns an empty slice.
func (s *FileStore) Load(ctx context.Context) ([]core.AttendanceRecord, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading attendance file: %w", err)
	}

	var out []core.AttendanceRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing attendance file: %w", err)
	}
	return out, nil
}

// Save durably replaces the record set.
func (s *FileStore) Save(ctx context.Context, recs []core.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicfile.WriteFile(s.path, payload, 0644)
}
