package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	DegreesIssued  prometheus.Counter
	DegreesRevoked prometheus.Counter

	// Verifications by outcome: valid, revoked, not_found, proof_mismatch
	Verifications *prometheus.CounterVec

	StorageErrors          prometheus.Counter
	LedgerSubmissionErrors prometheus.Counter

	SponsoredTransactions prometheus.Counter
	SponsorRejections     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DegreesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_degrees_issued_total",
			Help: "Total number of degree credentials issued",
		}),
		DegreesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_degrees_revoked_total",
			Help: "Total number of degree credentials revoked",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vellum_verifications_total",
			Help: "Total number of verification requests, labeled by outcome",
		}, []string{"outcome"}),
		StorageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_storage_errors_total",
			Help: "Total number of content store failures",
		}),
		LedgerSubmissionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_ledger_submission_errors_total",
			Help: "Total number of failed ledger transaction submissions",
		}),
		SponsoredTransactions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_sponsored_transactions_total",
			Help: "Total number of co-signed and submitted sponsored transactions",
		}),
		SponsorRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vellum_sponsor_rejections_total",
			Help: "Total number of sponsorship requests rejected, labeled by reason",
		}, []string{"reason"}),
	}
}
