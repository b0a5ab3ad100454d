// Package metrics holds Prometheus metrics for the record ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds record-related Prometheus metrics.
type Metrics struct {
	RecordsCreated    prometheus.Counter
	StatusTransitions *prometheus.CounterVec
}

// New creates and registers all record metrics.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_records_created_total",
			Help: "Total number of aid records registered",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_record_status_transitions_total",
			Help: "Record status transitions by target status",
		}, []string{"to"}),
	}
}
