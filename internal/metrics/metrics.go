// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alanbarret/wallet-attendance-system/core"
)

var (
	// TokensIssued counts token signings, one per rotation slot actually
	// requested.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_tokens_issued_total",
		Help: "Number of signed tokens issued.",
	})

	// VerificationResults counts verification attempts by result.
	VerificationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_verification_total",
		Help: "Verification attempts by result.",
	}, []string{"result"})

	// LedgerTransitions counts state machine outcomes.
	LedgerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_ledger_transitions_total",
		Help: "Ledger outcomes by kind.",
	}, []string{"kind"})
)

// ResultLabel maps a verification error to its counter label. nil means the
// request verified.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, core.ErrInvalidServerSignature):
		return "invalid_server_signature"
	case errors.Is(err, core.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, core.ErrInvalidEmployeeSignature):
		return "invalid_employee_signature"
	case errors.Is(err, core.ErrUnknownEmployee):
		return "unknown_employee"
	case errors.Is(err, core.ErrReplayDetected):
		return "replay_detected"
	case errors.Is(err, core.ErrPersistenceFailed):
		return "persistence_failed"
	default:
		return "error"
	}
}
