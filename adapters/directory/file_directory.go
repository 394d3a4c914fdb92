// Package directory is the file-backed employee registry: it owns
// registration and serves the lookups the core consumes.
package directory

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/internal/atomicfile"
)

const employeesFile = "employees.json"

// storedEmployee is the on-disk value; the employee id is the map key.
type storedEmployee struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Department   string `json:"department"`
	PublicKey    string `json:"public_key"`
	RegisteredAt string `json:"registered_at"`
}

// FileDirectory implements ports.Directory and ports.Registrar over a JSON
// file.
type FileDirectory struct {
	path string

	mu    sync.RWMutex
	byID  map[string]core.Employee
	byKey map[string]string // public key -> employee id
}

// Open loads (or initializes) the employee registry in dir.
func Open(dir string) (*FileDirectory, error) {
	d := &FileDirectory{
		path:  filepath.Join(dir, employeesFile),
		byID:  make(map[string]core.Employee),
		byKey: make(map[string]string),
	}

	raw, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading employee registry: %w", err)
	}

	var stored map[string]storedEmployee
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("parsing employee registry: %w", err)
	}
	for id, e := range stored {
		emp := core.Employee{
			ID:           id,
			Name:         e.Name,
			Email:        e.Email,
			Department:   e.Department,
			PublicKey:    e.PublicKey,
			RegisteredAt: e.RegisteredAt,
		}
		d.byID[id] = emp
		d.byKey[e.PublicKey] = id
	}
	return d, nil
}

// Lookup resolves a base58 public key to its registered employee.
func (d *FileDirectory) Lookup(ctx context.Context, publicKey string) (core.Employee, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byKey[publicKey]
	if !ok {
		return core.Employee{}, false, nil
	}
	return d.byID[id], true, nil
}

// Register creates the employee's Ed25519 pair, persists the public half,
// and returns the private key base58-encoded in the 64-byte seed-plus-public
// layout. The private key is never stored.
func (d *FileDirectory) Register(ctx context.Context, emp core.Employee) (core.Employee, string, error) {
	if emp.ID == "" || emp.Name == "" {
		return core.Employee{}, "", fmt.Errorf("employee id and name are required")
	}

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return core.Employee{}, "", fmt.Errorf("generating employee keypair: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byID[emp.ID]; exists {
		return core.Employee{}, "", fmt.Errorf("%w: %s", core.ErrEmployeeExists, emp.ID)
	}

	emp.PublicKey = base58.Encode(public)
	emp.RegisteredAt = time.Now().Format(time.RFC3339)

	d.byID[emp.ID] = emp
	d.byKey[emp.PublicKey] = emp.ID

	if err := d.persistLocked(); err != nil {
		delete(d.byID, emp.ID)
		delete(d.byKey, emp.PublicKey)
		return core.Employee{}, "", fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	return emp, base58.Encode(private), nil
}

// List returns the registered employees sorted by id.
func (d *FileDirectory) List(ctx context.Context) ([]core.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]core.Employee, 0, len(d.byID))
	for _, e := range d.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *FileDirectory) persistLocked() error {
	stored := make(map[string]storedEmployee, len(d.byID))
	for id, e := range d.byID {
		stored[id] = storedEmployee{
			Name:         e.Name,
			Email:        e.Email,
			Department:   e.Department,
			PublicKey:    e.PublicKey,
			RegisteredAt: e.RegisteredAt,
		}
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(d.path, payload, 0644)
}
