package ports

import (
	"context"

	"github.com/alanbarret/wallet-attendance-system/core"
)

// Directory resolves an employee public key to a registered identity. The
// core only consumes lookups; registration is an adapter concern.
type Directory interface {
	// Lookup returns the employee registered under the given base58 public
	// key, or ok=false when no such registration exists.
	Lookup(ctx context.Context, publicKey string) (emp core.Employee, ok bool, err error)
}

// Registrar is the registration surface consumed by the HTTP layer. It
// generates the employee's key pair and returns the private key exactly
// once, base58-encoded in the 64-byte seed-plus-public layout the browser
// client expects.
type Registrar interface {
	Register(ctx context.Context, emp core.Employee) (registered core.Employee, privateKey string, err error)
	List(ctx context.Context) ([]core.Employee, error)
}
