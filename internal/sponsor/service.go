// Package sponsor co-signs and submits pre-built issuer transactions so
// issuing authorities need not hold native gas funds.
//
// The relay is a pass-through trust boundary with no credential logic: it
// validates that a transaction's declared sender is the authenticated issuer
// and that its effects are limited to degree issuance or revocation, then
// adds the sponsor signature and submits. Anything else is rejected so the
// sponsor cannot be used as a general fee-paying oracle.
package sponsor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vellum/internal/audit"
	"vellum/internal/credential/models"
	"vellum/internal/ledger"
	"vellum/internal/platform/metrics"
	id "vellum/pkg/domain"
	pkgerrors "vellum/pkg/domain-errors"
)

// Rejection reasons, used as metric labels and audit detail.
const (
	RejectSenderMismatch   = "sender_mismatch"
	RejectUnknownIssuer    = "unknown_issuer"
	RejectForeignEffect    = "foreign_effect"
	RejectMalformedPayload = "malformed_payload"
)

// Signer produces the sponsor's gas co-signature.
type Signer interface {
	Address() id.AccountAddress
	Sign(ctx context.Context, txBytes []byte) (string, error)
}

// Receipt references the submitted sponsored transaction.
type Receipt struct {
	TxDigest id.TxDigest       `json:"tx_hash"`
	Sponsor  id.AccountAddress `json:"sponsor"`
}

type Option func(*Service)

// Service validates, co-signs, and submits sponsored transactions.
type Service struct {
	ledger         ledger.Ledger
	signer         Signer
	allowedIssuers map[id.AccountAddress]struct{}
	allowedSuffix  []string
	auditor        *audit.Publisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewService(l ledger.Ledger, signer Signer, allowedIssuers []id.AccountAddress, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		ledger:         l,
		signer:         signer,
		allowedIssuers: make(map[id.AccountAddress]struct{}, len(allowedIssuers)),
		allowedSuffix:  []string{"::degree::issue", "::degree::revoke"},
		logger:         logger,
	}
	for _, issuer := range allowedIssuers {
		svc.allowedIssuers[issuer] = struct{}{}
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithAuditor sets the audit publisher for sponsorship decisions.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Sponsor validates the transaction against policy, co-signs it with the
// sponsor key, and submits it with the issuer's signature attached.
func (s *Service) Sponsor(ctx context.Context, session models.IssuerSession, txBytes []byte, senderSignature string) (Receipt, error) {
	if session.Address.IsNil() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing issuer session")
	}
	if senderSignature == "" {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeBadRequest, "sender signature is required")
	}

	tx, err := ledger.ParseUnsignedTx(txBytes)
	if err != nil {
		s.reject(ctx, session, RejectMalformedPayload)
		return Receipt{}, err
	}

	if reason := s.checkPolicy(tx, session); reason != "" {
		s.reject(ctx, session, reason)
		return Receipt{}, pkgerrors.New(pkgerrors.CodeRejectedByPolicy,
			fmt.Sprintf("transaction rejected: %s", reason))
	}

	sponsorSignature, err := s.signer.Sign(ctx, txBytes)
	if err != nil {
		return Receipt{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to co-sign transaction")
	}

	result, err := s.ledger.SubmitSigned(ctx, txBytes, []string{senderSignature, sponsorSignature})
	if err != nil {
		if s.metrics != nil {
			s.metrics.LedgerSubmissionErrors.Inc()
		}
		return Receipt{}, pkgerrors.Wrap(err, pkgerrors.CodeLedgerSubmission, "failed to submit sponsored transaction")
	}

	if s.metrics != nil {
		s.metrics.SponsoredTransactions.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		SubjectID: session.Address.String(),
		Action:    audit.ActionTxSponsored,
		Outcome:   result.Digest.String(),
	})
	s.logger.Info("sponsored transaction submitted",
		"sender", tx.Sender,
		"tx_digest", result.Digest,
	)

	return Receipt{TxDigest: result.Digest, Sponsor: s.signer.Address()}, nil
}

// checkPolicy returns a rejection reason, or empty if the transaction passes.
func (s *Service) checkPolicy(tx ledger.UnsignedTx, session models.IssuerSession) string {
	sender, err := id.ParseAccountAddress(tx.Sender)
	if err != nil {
		return RejectMalformedPayload
	}
	if sender != session.Address {
		return RejectSenderMismatch
	}
	if _, ok := s.allowedIssuers[sender]; !ok {
		return RejectUnknownIssuer
	}
	for _, command := range tx.Commands {
		if !s.isAllowedTarget(command.Target) {
			return RejectForeignEffect
		}
	}
	return ""
}

func (s *Service) isAllowedTarget(target string) bool {
	for _, suffix := range s.allowedSuffix {
		if strings.HasSuffix(target, suffix) {
			return true
		}
	}
	return false
}

func (s *Service) reject(ctx context.Context, session models.IssuerSession, reason string) {
	if s.metrics != nil {
		s.metrics.SponsorRejections.WithLabelValues(reason).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		SubjectID: session.Address.String(),
		Action:    audit.ActionSponsorDenied,
		Reason:    reason,
	})
	s.logger.Warn("sponsorship request rejected",
		"issuer", session.Address,
		"reason", reason,
	)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit audit event", "action", event.Action, "error", err)
	}
}
