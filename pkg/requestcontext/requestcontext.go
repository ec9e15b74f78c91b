// Package requestcontext carries request-scoped values (correlation IDs and
// the authenticated caller identity) through context.Context. Keeping the
// keys private to one package prevents collisions and ad hoc context use.
package requestcontext

import (
	"context"

	id "vellum/pkg/domain"
)

type (
	requestIDKey struct{}
	issuerKey    struct{}
)

// Issuer is the authenticated issuing authority attached to a request.
// There is no ambient global authority: every coordinator call receives the
// caller identity explicitly from its request context.
type Issuer struct {
	Address id.AccountAddress
	Label   string
}

// IsNil reports whether no issuer identity is present.
func (i Issuer) IsNil() bool { return i.Address.IsNil() }

// WithRequestID returns a context carrying the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithIssuer returns a context carrying the authenticated issuer identity.
func WithIssuer(ctx context.Context, issuer Issuer) context.Context {
	return context.WithValue(ctx, issuerKey{}, issuer)
}

// CallerIssuer returns the authenticated issuer identity, or the zero value
// when the request is unauthenticated.
func CallerIssuer(ctx context.Context) Issuer {
	if v, ok := ctx.Value(issuerKey{}).(Issuer); ok {
		return v
	}
	return Issuer{}
}
