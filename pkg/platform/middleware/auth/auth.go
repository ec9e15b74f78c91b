// Package auth provides HTTP middleware that authenticates issuer sessions.
//
// Issuance, revocation, and sponsorship are restricted to authenticated
// issuing authorities. The middleware validates a bearer token, resolves the
// issuer's ledger address, and attaches the identity to the request context
// so coordinators receive an explicit caller identity rather than an ambient
// global session.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "vellum/pkg/domain"
	"vellum/pkg/requestcontext"
)

// TokenValidator validates issuer session tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*IssuerClaims, error)
}

// IssuerClaims represents the claims we expect from the token validator.
type IssuerClaims struct {
	Address string // ledger account address of the issuing authority
	Label   string // human-readable issuer label, e.g. "HCMUTE"
	JTI     string // token ID for audit correlation
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireIssuer returns middleware that rejects requests without a valid
// issuer session token and attaches the issuer identity to the context.
func RequireIssuer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid issuer token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid issuer token")
				return
			}

			address, err := id.ParseAccountAddress(claims.Address)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed issuer address in token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid issuer token")
				return
			}

			issuer := requestcontext.Issuer{
				Address: address,
				Label:   claims.Label,
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithIssuer(ctx, issuer)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
