// Package handler exposes the sponsorship relay over HTTP.
package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vellum/internal/credential/models"
	"vellum/internal/sponsor"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/httputil"
	"vellum/pkg/requestcontext"
)

// Service defines the sponsorship operation the handler delegates to.
type Service interface {
	Sponsor(ctx context.Context, session models.IssuerSession, txBytes []byte, senderSignature string) (sponsor.Receipt, error)
}

// Handler handles the sponsorship endpoint.
type Handler struct {
	logger  *slog.Logger
	sponsor Service
}

// New creates a new sponsorship Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		sponsor: service,
	}
}

// Register registers the sponsorship route. The route must sit behind issuer
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sponsor-tx", h.handleSponsorTx)
}

// sponsorRequest carries the pre-built transaction and the sender signature.
// TxBytes is base64 as produced by transaction-building SDKs.
type sponsorRequest struct {
	TxBytes   string `json:"txBytes"`
	Signature string `json:"signature"`
}

func (r *sponsorRequest) Validate() error {
	if r.TxBytes == "" {
		return dErrors.New(dErrors.CodeBadRequest, "txBytes is required")
	}
	return nil
}

func (h *Handler) handleSponsorTx(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer := requestcontext.CallerIssuer(ctx)
	if issuer.IsNil() {
		h.logger.ErrorContext(ctx, "issuer missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	session := models.IssuerSession{Address: issuer.Address, Label: issuer.Label}

	req, ok := httputil.DecodeAndPrepare[sponsorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	txBytes, err := base64.StdEncoding.DecodeString(req.TxBytes)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "txBytes is not valid base64"))
		return
	}

	receipt, err := h.sponsor.Sponsor(ctx, session, txBytes, req.Signature)
	if err != nil {
		h.logger.WarnContext(ctx, "sponsorship failed",
			"request_id", requestID,
			"issuer", session.Address,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}
