package service

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/ports"
)

// TokenVerifier decides whether a presented request is a genuine, fresh,
// correctly-signed attendance event. It is stateless apart from its calls
// into the replay guard and may run with unlimited parallelism.
type TokenVerifier struct {
	serverKey       ed25519.PublicKey
	serverKeyBase58 string
	grace           int64
	directory       ports.Directory
	replay          ports.ReplayGuard
}

// NewTokenVerifier creates a verifier bound to the server's known public
// key. Tokens claiming any other signer fail the signature check.
func NewTokenVerifier(keys ports.KeyStore, grace time.Duration, directory ports.Directory, replay ports.ReplayGuard) *TokenVerifier {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &TokenVerifier{
		serverKey:       keys.PublicKey(),
		serverKeyBase58: core.EncodeKey(keys.PublicKey()),
		grace:           int64(grace / time.Second),
		directory:       directory,
		replay:          replay,
	}
}

// Verify runs the ordered checks and returns the resolved employee on
// success. It fails fast: the first failing check determines the error
// kind, and no state changes on any failure path.
//
// The replay check is skipped for confirmation requests: a confirmation
// re-submits the exact token the employee already scanned once, so the
// anti-replay guarantee is deliberately "first scan only".
func (v *TokenVerifier) Verify(ctx context.Context, req core.AttendanceRequest, now time.Time) (core.Employee, error) {
	// The message is recomputed from the token's own fields. A forged token
	// claiming a different signer produces different bytes and fails the
	// check against the server's key, which is the only key ever used here.
	message := []byte(core.TokenMessage(req.Token.IssuedAt, req.Token.ServerPublicKey))

	serverSig, err := core.DecodeSignature(req.Token.Signature)
	if err != nil {
		return core.Employee{}, core.ErrInvalidServerSignature
	}
	if !ed25519.Verify(v.serverKey, message, serverSig) {
		return core.Employee{}, core.ErrInvalidServerSignature
	}

	age := now.Unix() - req.Token.IssuedAt
	if age > v.grace || age < 0 {
		return core.Employee{}, &core.TokenExpiredError{Age: age}
	}

	// The employee signs the same bytes the server signed.
	employeeKey, err := core.DecodePublicKey(req.EmployeeKey)
	if err != nil {
		return core.Employee{}, core.ErrInvalidEmployeeSignature
	}
	employeeSig, err := core.DecodeSignature(req.EmployeeSignature)
	if err != nil {
		return core.Employee{}, core.ErrInvalidEmployeeSignature
	}
	if !ed25519.Verify(employeeKey, message, employeeSig) {
		return core.Employee{}, core.ErrInvalidEmployeeSignature
	}

	emp, ok, err := v.directory.Lookup(ctx, req.EmployeeKey)
	if err != nil {
		return core.Employee{}, fmt.Errorf("directory lookup: %w", err)
	}
	if !ok {
		return core.Employee{}, core.ErrUnknownEmployee
	}

	if !req.ConfirmCheckout {
		fresh, err := v.replay.CheckAndConsume(ctx, emp.ID, req.Token.IssuedAt, now)
		if err != nil {
			return core.Employee{}, fmt.Errorf("%w: replay check: %v", core.ErrPersistenceFailed, err)
		}
		if !fresh {
			return core.Employee{}, core.ErrReplayDetected
		}
	}

	return emp, nil
}
