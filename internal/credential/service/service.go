// Package service implements the issuance, verification, and revocation
// coordinators over the ledger, the content store, and the metadata store.
//
// All operations are stateless request/response calls; the ledger's object
// versioning is the only mutual-exclusion mechanism, so nothing here locks
// across network calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vellum/internal/audit"
	"vellum/internal/credential/degree"
	"vellum/internal/credential/models"
	"vellum/internal/credential/proof"
	"vellum/internal/credential/store"
	"vellum/internal/ledger"
	"vellum/internal/platform/metrics"
	id "vellum/pkg/domain"
	pkgerrors "vellum/pkg/domain-errors"
)

// ContentStore is the content-addressed artifact store.
// Error Contract:
// - Fetch returns CodeNotFound when the blob is unknown
// - Transient gateway failures carry CodeStorageUnavailable
type ContentStore interface {
	Store(ctx context.Context, data []byte, contentType string) (id.StorageRef, error)
	Fetch(ctx context.Context, ref id.StorageRef) ([]byte, error)
}

type Option func(*Service)

// Service coordinates credential issuance, verification, and revocation.
type Service struct {
	ledger   ledger.Ledger
	content  ContentStore
	metadata store.MetadataStore
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(l ledger.Ledger, content ContentStore, metadata store.MetadataStore, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		ledger:   l,
		content:  content,
		metadata: metadata,
		logger:   logger,
		tracer:   otel.Tracer("vellum/credential"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithAuditor sets the audit publisher for lifecycle events.
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

// WithClock overrides the issuance timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Issue stores the artifact, binds the proof, and commits the credential
// object to the ledger under the session issuer's authority.
func (s *Service) Issue(ctx context.Context, session models.IssuerSession, req models.IssueRequest) (models.IssuanceReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "credential.Issue")
	defer span.End()

	if session.Address.IsNil() {
		return models.IssuanceReceipt{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing issuer session")
	}
	if len(req.Artifact) == 0 {
		return models.IssuanceReceipt{}, pkgerrors.New(pkgerrors.CodeValidation, "certificate artifact is required")
	}
	if err := req.Metadata.Validate(); err != nil {
		return models.IssuanceReceipt{}, err
	}

	ref, err := s.content.Store(ctx, req.Artifact, req.ContentType)
	if err != nil {
		s.countStorageError()
		return models.IssuanceReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeStorageUnavailable, "failed to store certificate artifact")
	}

	binding := proof.Bind(req.Artifact, req.Metadata)
	obj, err := degree.New(req.Metadata.StudentID, session.Address, ref, binding, s.now().UTC())
	if err != nil {
		return models.IssuanceReceipt{}, err
	}

	committed, tx, err := s.ledger.CreateDegree(ctx, obj, session.Address)
	if err != nil {
		s.countLedgerError()
		return models.IssuanceReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeLedgerSubmission, "failed to commit credential to ledger")
	}

	// The credential is now ledger-resident. A metadata write failure leaves
	// it resolvable but unverifiable (metadata_missing), so it is surfaced as
	// an error rather than silently succeeding.
	if err := s.metadata.SaveMetadata(ctx, req.Metadata); err != nil {
		s.logger.Error("credential committed but metadata persistence failed",
			"student_id", req.Metadata.StudentID,
			"object_id", committed.ID,
			"tx_digest", tx.Digest,
			"error", err,
		)
		return models.IssuanceReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal,
			fmt.Sprintf("credential committed (tx %s) but metadata persistence failed", tx.Digest))
	}

	if s.metrics != nil {
		s.metrics.DegreesIssued.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		SubjectID: req.Metadata.StudentID.String(),
		Action:    audit.ActionIssued,
		Verifier:  session.Address.String(),
	})
	s.logger.Info("degree credential issued",
		"student_id", req.Metadata.StudentID,
		"object_id", committed.ID,
		"tx_digest", tx.Digest,
	)

	return models.IssuanceReceipt{
		ObjectID:  committed.ID,
		TxDigest:  tx.Digest,
		WalrusURI: committed.WalrusURI,
	}, nil
}

// Verify resolves the current credential for the subject and checks its
// binding proof against the stored artifact and paired metadata.
//
// Verification is read-only and idempotent: it never mutates ledger or store
// state, and partial failures still produce a structured tri-state result
// rather than an opaque failure.
func (s *Service) Verify(ctx context.Context, studentID id.SubjectID) (models.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "credential.Verify")
	defer span.End()

	if _, err := id.ParseSubjectID(studentID.String()); err != nil {
		return models.VerificationResult{}, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid subject id")
	}

	obj, err := s.ledger.DegreeBySubject(ctx, studentID)
	if errors.Is(err, ledger.ErrObjectNotFound) {
		return s.countOutcome(models.VerificationResult{Status: models.StatusNotFound}), nil
	}
	if err != nil {
		return models.VerificationResult{}, err
	}

	// The artifact and the metadata live in independent systems; fetch them
	// in parallel and fail on whichever is missing.
	var (
		artifact    []byte
		artifactErr error
		md          models.DegreeMetadata
		metadataErr error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		artifact, artifactErr = s.content.Fetch(groupCtx, obj.WalrusURI)
		return artifactErr
	})
	group.Go(func() error {
		md, metadataErr = s.metadata.MetadataBySubject(groupCtx, studentID)
		return metadataErr
	})
	if err := group.Wait(); err != nil {
		// Classify by source, not by code: a missing blob and a missing
		// metadata record both carry not_found but mean different things.
		if metadataErr != nil && errors.Is(metadataErr, store.ErrNotFound) {
			return s.countOutcome(models.VerificationResult{
				Status: models.StatusNotFound,
				Degree: &obj,
				Reason: models.ReasonMetadataMissing,
				Err:    "no metadata record is paired with this credential",
			}), nil
		}
		s.countStorageError()
		return s.countOutcome(models.VerificationResult{
			Status: models.StatusNotFound,
			Degree: &obj,
			Reason: models.ReasonArtifactUnavailable,
			Err:    err.Error(),
		}), nil
	}

	if !proof.Verify(obj.Proof, artifact, md) {
		s.logger.Warn("credential proof mismatch detected",
			"student_id", studentID,
			"object_id", obj.ID,
		)
		return s.countOutcome(models.VerificationResult{
			Status: models.StatusNotFound,
			Degree: &obj,
			Reason: models.ReasonProofMismatch,
			Err:    "stored artifact or metadata does not match the credential proof",
		}), nil
	}

	if obj.IsRevoked {
		// Revoked credentials remain inspectable; only their trust status
		// changes.
		return s.countOutcome(models.VerificationResult{
			Status:   models.StatusRevoked,
			Degree:   &obj,
			Metadata: &md,
		}), nil
	}

	return s.countOutcome(models.VerificationResult{
		Status:   models.StatusValid,
		Degree:   &obj,
		Metadata: &md,
	}), nil
}

// LogVerification appends a best-effort audit record for a verification.
// Failures never affect the verification outcome and are not retried here.
func (s *Service) LogVerification(ctx context.Context, studentID id.SubjectID, event audit.Event) {
	event.SubjectID = studentID.String()
	if event.Action == "" {
		event.Action = audit.ActionVerified
	}
	s.emitAudit(ctx, event)
}

// VerificationLog lists recorded verification events for a subject.
func (s *Service) VerificationLog(ctx context.Context, studentID id.SubjectID) ([]audit.Event, error) {
	if s.auditor == nil {
		return nil, nil
	}
	return s.auditor.List(ctx, studentID.String())
}

// Revoke transitions the subject's current credential to revoked. Only the
// issuer recorded on the object may revoke; the check is strict equality
// against the immutable issuer field.
func (s *Service) Revoke(ctx context.Context, session models.IssuerSession, studentID id.SubjectID) (models.RevocationReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "credential.Revoke")
	defer span.End()

	if session.Address.IsNil() {
		return models.RevocationReceipt{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing issuer session")
	}
	if _, err := id.ParseSubjectID(studentID.String()); err != nil {
		return models.RevocationReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeValidation, "invalid subject id")
	}

	obj, err := s.ledger.DegreeBySubject(ctx, studentID)
	if errors.Is(err, ledger.ErrObjectNotFound) {
		return models.RevocationReceipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "no credential exists for this subject")
	}
	if err != nil {
		return models.RevocationReceipt{}, err
	}

	if obj.Issuer != session.Address {
		return models.RevocationReceipt{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller is not the issuing authority")
	}

	revoked, err := degree.Revoke(obj)
	if err != nil {
		return models.RevocationReceipt{}, err
	}

	tx, err := s.ledger.MarkRevoked(ctx, revoked, session.Address)
	if errors.Is(err, ledger.ErrVersionConflict) {
		// A concurrent write won the race. Re-read before deciding: if the
		// credential is now revoked the caller lost to another revocation
		// and sees the idempotency signal, not a corrupted state.
		current, readErr := s.ledger.DegreeBySubject(ctx, studentID)
		if readErr == nil && current.IsRevoked {
			return models.RevocationReceipt{}, pkgerrors.New(pkgerrors.CodeAlreadyRevoked, "credential is already revoked")
		}
		return models.RevocationReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeConflict, "revocation lost a concurrent write, re-read and retry")
	}
	if err != nil {
		s.countLedgerError()
		return models.RevocationReceipt{}, pkgerrors.Wrap(err, pkgerrors.CodeLedgerSubmission, "failed to submit revocation transaction")
	}

	if s.metrics != nil {
		s.metrics.DegreesRevoked.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		SubjectID: studentID.String(),
		Action:    audit.ActionRevoked,
		Verifier:  session.Address.String(),
	})
	s.logger.Info("degree credential revoked",
		"student_id", studentID,
		"object_id", obj.ID,
		"tx_digest", tx.Digest,
	)

	return models.RevocationReceipt{TxDigest: tx.Digest}, nil
}

// emitAudit is fire-and-forget: the audit log swallows its own errors.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (s *Service) countOutcome(result models.VerificationResult) models.VerificationResult {
	if s.metrics != nil {
		outcome := string(result.Status)
		if result.Reason == models.ReasonProofMismatch {
			outcome = models.ReasonProofMismatch
		}
		s.metrics.Verifications.WithLabelValues(outcome).Inc()
	}
	return result
}

func (s *Service) countStorageError() {
	if s.metrics != nil {
		s.metrics.StorageErrors.Inc()
	}
}

func (s *Service) countLedgerError() {
	if s.metrics != nil {
		s.metrics.LedgerSubmissionErrors.Inc()
	}
}
