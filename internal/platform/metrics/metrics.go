package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginsTotal          prometheus.Counter
	AuthFailuresTotal    prometheus.Counter
	AssetsCreated        prometheus.Counter
	AssetsUpdated        prometheus.Counter
	OwnershipViolations  prometheus.Counter
	UpdateConflictsTotal prometheus.Counter
	RevocationCheckMs    prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_logins_total",
			Help: "Total number of successful logins",
		}),
		AuthFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_auth_failures_total",
			Help: "Total number of failed authentication attempts",
		}),
		AssetsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_assets_created_total",
			Help: "Total number of assets created",
		}),
		AssetsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_assets_updated_total",
			Help: "Total number of asset updates applied",
		}),
		OwnershipViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_ownership_violations_total",
			Help: "Total number of writes rejected by ownership invariants",
		}),
		UpdateConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_asset_update_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts on asset updates",
		}),
		RevocationCheckMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "heirloom_revocation_check_duration_ms",
			Help:    "Latency of session revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

// ObserveRevocationCheck records one revocation-list lookup duration.
func (m *Metrics) ObserveRevocationCheck(d time.Duration) {
	if m == nil {
		return
	}
	m.RevocationCheckMs.Observe(float64(d.Microseconds()) / 1000.0)
}
