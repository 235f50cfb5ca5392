package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oracle"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	classifications *prometheus.CounterVec
	confidence      *prometheus.HistogramVec
	allocations     *prometheus.CounterVec
	providerFetches *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Regime classifications by mode and resulting regime",
			},
			[]string{"mode", "regime"},
		),
		confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classification_confidence",
				Help:      "Confidence of regime classifications",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
			[]string{"mode"},
		),
		allocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "allocations_total",
				Help:      "Allocations scored by regime and risk profile",
			},
			[]string{"regime", "risk_profile", "degraded"},
		),
		providerFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_fetches_total",
				Help:      "Indicator provider fetches by result",
			},
			[]string{"provider", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordClassification(mode, regime string, confidence float64) {
	r.classifications.WithLabelValues(mode, regime).Inc()
	r.confidence.WithLabelValues(mode).Observe(confidence)
}

func (r *Recorder) RecordAllocation(regime, profile string, degraded bool) {
	r.allocations.WithLabelValues(regime, profile, strconv.FormatBool(degraded)).Inc()
}

func (r *Recorder) RecordProviderFetch(provider, result string) {
	r.providerFetches.WithLabelValues(provider, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
