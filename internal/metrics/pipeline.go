// Package metrics holds the Prometheus collectors for the OCR service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fra_ocr"

var (
	// DocumentsTotal counts finished pipeline runs by outcome (success, failed, unsupported).
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		},
		[]string{"outcome"},
	)

	// StageFailuresTotal counts pipeline transitions into Failed, by the stage that failed.
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures",
		},
		[]string{"stage"},
	)

	// StageDuration observes per-stage latency.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// FallbacksTotal counts fields substituted by the normalizer.
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fields filled with fallback values",
		},
		[]string{"field"},
	)

	// DegradedTotal counts graceful degradations (OCR diagnostics, swallowed model faults).
	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Stages that degraded instead of failing",
		},
		[]string{"component", "reason"},
	)

	// Confidence observes the final confidence of successful results.
	Confidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence",
			Help:      "Final extraction confidence",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			DocumentsTotal,
			StageFailuresTotal,
			StageDuration,
			FallbacksTotal,
			DegradedTotal,
			Confidence,
			ModelRequestsTotal,
			ModelRequestDuration,
		)
	})
}
