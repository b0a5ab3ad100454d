// Package metrics holds Prometheus metrics for the verification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds verification-related Prometheus metrics.
type Metrics struct {
	Requested         prometheus.Counter
	Completed         prometheus.Counter
	Revealed          prometheus.Counter
	CallbacksRejected *prometheus.CounterVec
	CallbackLatency   *prometheus.HistogramVec
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		Requested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_verifications_requested_total",
			Help: "Total number of eligibility verification requests submitted",
		}),
		Completed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_verifications_completed_total",
			Help: "Total number of verifications completed by eligibility callbacks",
		}),
		Revealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_results_revealed_total",
			Help: "Total number of verification results revealed",
		}),
		CallbacksRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_callbacks_rejected_total",
			Help: "Oracle callbacks rejected, by callback kind",
		}, []string{"kind"}),
		CallbackLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aidledger_callback_latency_seconds",
			Help:    "Delay between request registration and callback arrival",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"kind"}),
	}
}
