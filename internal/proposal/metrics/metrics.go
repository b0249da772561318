package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the proposal module.
type Metrics struct {
	ProposalsAdded    prometheus.Counter
	VotesCast         prometheus.Counter
	ProposalsApproved prometheus.Counter
}

// New creates and registers all proposal module metrics.
func New() *Metrics {
	return &Metrics{
		ProposalsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_proposals_added_total",
			Help: "Total number of proposals submitted",
		}),
		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_votes_cast_total",
			Help: "Total number of votes cast",
		}),
		ProposalsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_proposals_approved_total",
			Help: "Total number of proposals approved and paid out",
		}),
	}
}

// IncrementProposalsAdded records a submitted proposal.
func (m *Metrics) IncrementProposalsAdded() {
	m.ProposalsAdded.Inc()
}

// IncrementVotesCast records a cast vote.
func (m *Metrics) IncrementVotesCast() {
	m.VotesCast.Inc()
}

// IncrementProposalsApproved records an approval payout.
func (m *Metrics) IncrementProposalsApproved() {
	m.ProposalsApproved.Inc()
}
