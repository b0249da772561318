package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	ItemsListed prometheus.Counter
	ItemsSold   prometheus.Counter
}

// New creates and registers all catalog module metrics.
func New() *Metrics {
	return &Metrics{
		ItemsListed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_items_listed_total",
			Help: "Total number of items listed on the market",
		}),
		ItemsSold: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commune_items_sold_total",
			Help: "Total number of items sold",
		}),
	}
}

// IncrementItemsListed records a successful listing.
func (m *Metrics) IncrementItemsListed() {
	m.ItemsListed.Inc()
}

// IncrementItemsSold records a completed sale.
func (m *Metrics) IncrementItemsSold() {
	m.ItemsSold.Inc()
}
