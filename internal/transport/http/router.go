// Package httptransport assembles the HTTP surface: public verification,
// issuer-authenticated lifecycle endpoints, health probes, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credentialhandler "vellum/internal/credential/handler"
	"vellum/internal/platform/health"
	sponsorhandler "vellum/internal/sponsor/handler"
	"vellum/pkg/platform/middleware/auth"
	"vellum/pkg/platform/middleware/request"
)

// Deps carries the wired handlers and middleware dependencies for the router.
type Deps struct {
	Credentials    *credentialhandler.Handler
	Sponsorship    *sponsorhandler.Handler
	Health         *health.Handler
	TokenValidator auth.TokenValidator
	Logger         *slog.Logger
	Metrics        *request.Metrics
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires all endpoints with the shared middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(deps.Logger, deps.Metrics))
	r.Use(request.Timeout(timeout))
	if deps.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(deps.MaxBodyBytes))
	}

	// Public surface: verification is unauthenticated by design.
	deps.Credentials.RegisterPublic(r)
	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Issuer surface: issuance, revocation, and sponsorship require a valid
	// issuer session token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireIssuer(deps.TokenValidator, deps.Logger))
		deps.Credentials.RegisterIssuer(r)
		deps.Sponsorship.Register(r)
	})

	return r
}
