package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidServerSignature is returned when the token's signature does
	// not verify against the server's own signing key.
	ErrInvalidServerSignature = errors.New("invalid server signature")

	// ErrTokenExpired is returned when a token is outside the grace window.
	// Use errors.As with *TokenExpiredError to recover the observed age.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidEmployeeSignature is returned when the employee signature
	// does not verify over the token message.
	ErrInvalidEmployeeSignature = errors.New("invalid employee signature")

	// ErrUnknownEmployee is returned when the presented public key is not
	// registered in the employee directory.
	ErrUnknownEmployee = errors.New("employee not registered or invalid key")

	// ErrReplayDetected is returned when the same token has already been
	// consumed by the same employee inside the reuse window.
	ErrReplayDetected = errors.New("token already used recently")

	// ErrPersistenceFailed is returned when a mutation could not be made
	// durable. The mutation is not applied; the caller must never be told
	// the attendance was recorded.
	ErrPersistenceFailed = errors.New("attendance record could not be persisted")

	// ErrEmployeeExists is returned when registering an employee id that is
	// already taken.
	ErrEmployeeExists = errors.New("employee already registered")
)

// TokenExpiredError carries the observed token age in seconds. Age is
// negative when the token claims a future timestamp, which indicates clock
// skew and is rejected the same way as an old token.
type TokenExpiredError struct {
	Age int64
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("token expired (age: %ds)", e.Age)
}

func (e *TokenExpiredError) Unwrap() error { return ErrTokenExpired }
