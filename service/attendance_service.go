package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/internal/metrics"
	"github.com/alanbarret/wallet-attendance-system/ports"
)

// AttendanceService is the single entry point the transport layer talks to:
// token issuance, the combined verify-and-record flow, and the read-only
// record listing.
type AttendanceService struct {
	issuer   *TokenIssuer
	verifier *TokenVerifier
	ledger   *AttendanceLedger
	events   ports.EventPublisher
	logger   *zap.Logger
}

// NewAttendanceService wires the issuer, verifier and ledger behind one
// facade. events may be nil when no publisher is configured.
func NewAttendanceService(issuer *TokenIssuer, verifier *TokenVerifier, ledger *AttendanceLedger, events ports.EventPublisher, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		issuer:   issuer,
		verifier: verifier,
		ledger:   ledger,
		events:   events,
		logger:   logger,
	}
}

// IssueCurrentToken returns the signed token for the rotation slot
// containing now. Called on every page and QR image refresh.
func (s *AttendanceService) IssueCurrentToken(now time.Time) (core.Token, error) {
	token, err := s.issuer.Issue(now)
	if err != nil {
		return core.Token{}, err
	}
	metrics.TokensIssued.Inc()
	return token, nil
}

// ServerPublicKey returns the base58 key tokens are signed with.
func (s *AttendanceService) ServerPublicKey() string {
	return s.issuer.PublicKey()
}

// VerifyAndRecord runs the full pipeline for one attendance request:
// signature and freshness checks, replay guard, then the ledger state
// machine. No state changes when verification fails; the ledger mutation is
// durable before the outcome is returned.
func (s *AttendanceService) VerifyAndRecord(ctx context.Context, req core.AttendanceRequest, now time.Time) (core.Outcome, error) {
	emp, err := s.verifier.Verify(ctx, req, now)
	metrics.VerificationResults.WithLabelValues(metrics.ResultLabel(err)).Inc()
	if err != nil {
		s.logger.Warn("verification rejected",
			zap.Int64("token_ts", req.Token.IssuedAt),
			zap.Error(err))
		return core.Outcome{}, err
	}

	outcome, err := s.ledger.Apply(ctx, emp, now, req.ConfirmCheckout, req.Token.IssuedAt)
	if err != nil {
		return core.Outcome{}, err
	}
	metrics.LedgerTransitions.WithLabelValues(string(outcome.Kind)).Inc()

	s.publish(ctx, outcome)
	return outcome, nil
}

// ListRecords returns a snapshot of the fully-committed records.
func (s *AttendanceService) ListRecords(ctx context.Context) []core.AttendanceRecord {
	return s.ledger.List(ctx)
}

// publish emits the event for a committed transition. The record is already
// durable, so a publish failure is logged and otherwise ignored.
func (s *AttendanceService) publish(ctx context.Context, outcome core.Outcome) {
	if s.events == nil {
		return
	}

	var err error
	switch outcome.Kind {
	case core.OutcomeCheckInSuccess:
		err = s.events.PublishCheckIn(ctx, outcome.Record)
	case core.OutcomeCheckOutSuccess:
		err = s.events.PublishCheckOut(ctx, outcome.Record)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("event publish failed",
			zap.String("kind", string(outcome.Kind)),
			zap.String("emp_id", outcome.EmployeeID),
			zap.Error(err))
	}
}
