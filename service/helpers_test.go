package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanbarret/wallet-attendance-system/core"
)

// staticKeys is a KeyStore over a fixed Ed25519 pair.
type staticKeys struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newStaticKeys(t *testing.T) staticKeys {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return staticKeys{pub: pub, priv: priv}
}

func (k staticKeys) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

func (k staticKeys) PublicKey() ed25519.PublicKey { return k.pub }

// mapDirectory resolves base58 public keys from a fixed map.
type mapDirectory map[string]core.Employee

func (d mapDirectory) Lookup(ctx context.Context, publicKey string) (core.Employee, bool, error) {
	emp, ok := d[publicKey]
	return emp, ok, nil
}

// memoryReplay is a window-less in-memory guard for verifier tests.
type memoryReplay struct {
	mu       sync.Mutex
	consumed map[string]int64
	err      error
}

func newMemoryReplay() *memoryReplay {
	return &memoryReplay{consumed: make(map[string]int64)}
}

func (g *memoryReplay) CheckAndConsume(ctx context.Context, identityKey string, tokenTimestamp int64, now time.Time) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	key := identityKey + "/" + time.Unix(tokenTimestamp, 0).UTC().String()
	if _, ok := g.consumed[key]; ok {
		return false, nil
	}
	g.consumed[key] = now.Unix()
	return true, nil
}

// memoryStore is a RecordStore with a switchable failure mode.
type memoryStore struct {
	mu      sync.Mutex
	records []core.AttendanceRecord
	saves   int
	failing bool
}

var errStoreDown = errors.New("store down")

func (s *memoryStore) Load(ctx context.Context) ([]core.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memoryStore) Save(ctx context.Context, records []core.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errStoreDown
	}
	s.records = make([]core.AttendanceRecord, len(records))
	copy(s.records, records)
	s.saves++
	return nil
}

// employeeSigner holds a registered employee and signs messages with its
// private key.
type employeeSigner struct {
	emp  core.Employee
	priv ed25519.PrivateKey
}

func newEmployee(t *testing.T, id, name string) employeeSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return employeeSigner{
		emp: core.Employee{
			ID:        id,
			Name:      name,
			PublicKey: core.EncodeKey(pub),
		},
		priv: priv,
	}
}

func (e employeeSigner) sign(message string) string {
	return core.EncodeSignature(ed25519.Sign(e.priv, []byte(message)))
}

// request builds a fully signed attendance request for the given token.
func (e employeeSigner) request(token core.Token, confirm bool) core.AttendanceRequest {
	return core.AttendanceRequest{
		Token:             token,
		EmployeeKey:       e.emp.PublicKey,
		EmployeeSignature: e.sign(token.Message),
		ConfirmCheckout:   confirm,
	}
}
