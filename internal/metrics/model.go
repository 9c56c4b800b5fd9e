package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ModelRequestsTotal counts entity-recognition calls by provider and outcome.
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ner_requests_total",
			Help:      "Entity-recognition model requests",
		},
		[]string{"provider", "model", "outcome"},
	)

	// ModelRequestDuration observes successful entity-recognition latency.
	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ner_request_duration_seconds",
			Help:      "Entity-recognition model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"provider", "model"},
	)
)
