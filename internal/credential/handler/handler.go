// Package handler exposes the credential protocol over HTTP. It is a thin
// layer: decode, delegate to the service, translate domain errors.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vellum/internal/audit"
	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/httputil"
	"vellum/pkg/requestcontext"
)

// Service defines the credential operations the handler delegates to.
type Service interface {
	Issue(ctx context.Context, session models.IssuerSession, req models.IssueRequest) (models.IssuanceReceipt, error)
	Verify(ctx context.Context, studentID id.SubjectID) (models.VerificationResult, error)
	Revoke(ctx context.Context, session models.IssuerSession, studentID id.SubjectID) (models.RevocationReceipt, error)
	LogVerification(ctx context.Context, studentID id.SubjectID, event audit.Event)
	VerificationLog(ctx context.Context, studentID id.SubjectID) ([]audit.Event, error)
}

// Handler handles credential endpoints.
type Handler struct {
	logger           *slog.Logger
	credentials      Service
	maxArtifactBytes int64
}

// New creates a new credential Handler.
func New(credentials Service, maxArtifactBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		logger:           logger,
		credentials:      credentials,
		maxArtifactBytes: maxArtifactBytes,
	}
}

// RegisterPublic registers the unauthenticated verification routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{subject_id}", h.handleVerify)
	r.Get("/verify/{subject_id}/log", h.handleListVerifications)
	r.Post("/verify/{subject_id}/log", h.handleLogVerification)
}

// RegisterIssuer registers the routes restricted to authenticated issuers.
func (h *Handler) RegisterIssuer(r chi.Router) {
	r.Post("/degree/issue", h.handleIssue)
	r.Post("/degree/revoke", h.handleRevoke)
}

// verifyResponse is the wire form of a VerificationResult.
type verifyResponse struct {
	Valid    bool                   `json:"valid"`
	Status   string                 `json:"status"`
	Degree   *models.DegreeObject   `json:"degree,omitempty"`
	Metadata *models.DegreeMetadata `json:"metadata,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.credentials.Verify(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	// Partial failures still produce a structured tri-state result with 200,
	// so verifiers always get a definitive status to render.
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Valid:    result.Valid(),
		Status:   string(result.Status),
		Degree:   result.Degree,
		Metadata: result.Metadata,
		Reason:   result.Reason,
		Error:    result.Err,
	})
}

// logVerificationRequest is the optional body of the audit append call.
type logVerificationRequest struct {
	Outcome  string `json:"outcome"`
	Verifier string `json:"verifier"`
}

// handleLogVerification appends a best-effort verification audit record.
// Any 2xx is acceptable to callers; failures are swallowed downstream.
func (h *Handler) handleLogVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req logVerificationRequest
	// Body is optional; a decode failure degrades to an empty record.
	_ = json.NewDecoder(r.Body).Decode(&req)

	event := audit.Event{
		Outcome:  req.Outcome,
		Verifier: req.Verifier,
		ClientIP: clientIP(r),
	}
	event.EnrichUserAgent(r.UserAgent())

	h.credentials.LogVerification(ctx, subjectID, event)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "logged"})
}

func (h *Handler) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.credentials.VerificationLog(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleIssue accepts a multipart form with a "certificate" file part and a
// "metadata" JSON part.
func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	session, ok := sessionFromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "issuer missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	if err := r.ParseMultipartForm(h.maxArtifactBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("certificate")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "certificate file part is required"))
		return
	}
	artifact, contentType, err := readArtifact(file, header, h.maxArtifactBytes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	metadataField := r.FormValue("metadata")
	if metadataField == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "metadata form field is required"))
		return
	}
	var metadata models.DegreeMetadata
	if err := json.Unmarshal([]byte(metadataField), &metadata); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "metadata is not valid JSON"))
		return
	}

	receipt, err := h.credentials.Issue(ctx, session, models.IssueRequest{
		Artifact:    artifact,
		ContentType: contentType,
		Metadata:    metadata,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "issuance failed",
			"request_id", requestID,
			"student_id", metadata.StudentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

// revokeRequest is the body of the revocation call.
type revokeRequest struct {
	StudentID string `json:"student_id"`
}

func (r *revokeRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
}

func (r *revokeRequest) Validate() error {
	if r.StudentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	return nil
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	session, ok := sessionFromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "issuer missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[revokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	subjectID, err := id.ParseSubjectID(req.StudentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.credentials.Revoke(ctx, session, subjectID)
	if err != nil {
		h.logger.WarnContext(ctx, "revocation failed",
			"request_id", requestID,
			"student_id", subjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tx_hash": receipt.TxDigest,
	})
}

func sessionFromContext(ctx context.Context) (models.IssuerSession, bool) {
	issuer := requestcontext.CallerIssuer(ctx)
	if issuer.IsNil() {
		return models.IssuerSession{}, false
	}
	return models.IssuerSession{Address: issuer.Address, Label: issuer.Label}, true
}

func readArtifact(file multipart.File, header *multipart.FileHeader, maxBytes int64) ([]byte, string, error) {
	defer file.Close()

	// The form parser already enforces the memory budget; the extra byte
	// makes an at-limit overflow detectable.
	artifact, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read certificate file")
	}
	if int64(len(artifact)) > maxBytes {
		return nil, "", dErrors.New(dErrors.CodeValidation, "certificate file exceeds size limit")
	}
	if len(artifact) == 0 {
		return nil, "", dErrors.New(dErrors.CodeValidation, "certificate file is empty")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(artifact)
	}
	return artifact, contentType, nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
