package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/ports"
)

// Default timing for the token protocol. A token stays presentable past the
// next rotation: both the currently displayed token and its predecessor can
// be valid at the same time inside the grace window.
const (
	DefaultRotationInterval = 10 * time.Second
	DefaultGracePeriod      = 30 * time.Second
	DefaultReuseWindow      = 300 * time.Second
)

// TokenIssuer produces the rotating signed token. Issuance is deterministic
// given the clock and the server key: the issued-at is the rotation slot
// containing now, so every refresh inside the same slot yields the same
// token.
type TokenIssuer struct {
	keys      ports.KeyStore
	publicKey string
	interval  int64

	mu       sync.Mutex
	lastSlot int64
}

// NewTokenIssuer creates an issuer rotating at the given interval.
func NewTokenIssuer(keys ports.KeyStore, interval time.Duration) *TokenIssuer {
	if interval <= 0 {
		interval = DefaultRotationInterval
	}
	return &TokenIssuer{
		keys:      keys,
		publicKey: core.EncodeKey(keys.PublicKey()),
		interval:  int64(interval / time.Second),
	}
}

// Issue builds and signs the token for the rotation slot containing now.
// The slot never goes backwards: if the wall clock is rolled back, Issue
// keeps returning the latest slot already issued rather than re-issuing an
// earlier timestamp.
func (i *TokenIssuer) Issue(now time.Time) (core.Token, error) {
	slot := now.Unix() / i.interval * i.interval

	i.mu.Lock()
	if slot < i.lastSlot {
		slot = i.lastSlot
	}
	i.lastSlot = slot
	i.mu.Unlock()

	message := core.TokenMessage(slot, i.publicKey)
	sig, err := i.keys.Sign([]byte(message))
	if err != nil {
		return core.Token{}, fmt.Errorf("signing token: %w", err)
	}

	return core.Token{
		Message:         message,
		Signature:       core.EncodeSignature(sig),
		IssuedAt:        slot,
		ServerPublicKey: i.publicKey,
	}, nil
}

// PublicKey returns the base58 server key embedded in every token.
func (i *TokenIssuer) PublicKey() string {
	return i.publicKey
}
