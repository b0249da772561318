package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the market module.
type Metrics struct {
	StaleIDClaims prometheus.Counter
}

// New creates and registers all market module metrics.
func New() *Metrics {
	return &Metrics{
		StaleIDClaims: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_stale_id_claims_total",
			Help: "Total number of creates rejected because the claimed id was stale",
		}),
	}
}

// IncrementStaleIDClaims records a rejected stale-id claim.
func (m *Metrics) IncrementStaleIDClaims() {
	m.StaleIDClaims.Inc()
}
