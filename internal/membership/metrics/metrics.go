package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the membership module.
type Metrics struct {
	MembersJoined prometheus.Counter
}

// New creates and registers all membership module metrics.
func New() *Metrics {
	return &Metrics{
		MembersJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_members_joined_total",
			Help: "Total number of members that joined the commune",
		}),
	}
}

// IncrementMembersJoined records a successful join.
func (m *Metrics) IncrementMembersJoined() {
	m.MembersJoined.Inc()
}
