package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment engine. All observe
// methods are nil-safe so callers can run without metrics in tests.
type Metrics struct {
	// Provider fetch outcomes by provider class and outcome
	// (hit / empty / degraded)
	ProviderFetch *prometheus.CounterVec

	// Provider fetch latencies by provider class
	ProviderLatency *prometheus.HistogramVec

	// Assessment outcomes by result (succeeded / failed)
	AssessmentOutcome *prometheus.CounterVec

	// End-to-end assessment latency
	AssessmentLatency prometheus.Histogram

	// Sweep per-subject outcomes
	SweepOutcome *prometheus.CounterVec

	// Rate limiter wait time by provider class
	ThrottleWait *prometheus.HistogramVec
}

// New creates a Metrics instance with all engine metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		ProviderFetch: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskcore_provider_fetch_total",
			Help: "Total provider fetches by provider class and outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskcore_provider_fetch_duration_seconds",
			Help:    "Duration of provider fetches by provider class",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),

		AssessmentOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskcore_assessment_total",
			Help: "Total assessment runs by outcome",
		}, []string{"outcome"}),

		AssessmentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskcore_assessment_duration_seconds",
			Help:    "Duration of full assessment runs including provider fan-out",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		SweepOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskcore_sweep_subjects_total",
			Help: "Total subjects processed by batch sweeps, by outcome",
		}, []string{"outcome"}),

		ThrottleWait: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskcore_throttle_wait_seconds",
			Help:    "Time spent waiting on the outbound rate limiter",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 15, 60},
		}, []string{"provider"}),
	}
}

// CountFetch records one provider fetch outcome
func (m *Metrics) CountFetch(provider, outcome string) {
	if m != nil {
		m.ProviderFetch.WithLabelValues(provider, outcome).Inc()
	}
}

// ObserveFetchLatency records the duration of one provider fetch
func (m *Metrics) ObserveFetchLatency(provider string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// CountAssessment records one assessment run outcome
func (m *Metrics) CountAssessment(outcome string) {
	if m != nil {
		m.AssessmentOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveAssessmentLatency records the duration of one assessment run
func (m *Metrics) ObserveAssessmentLatency(d time.Duration) {
	if m != nil {
		m.AssessmentLatency.Observe(d.Seconds())
	}
}

// CountSweep records one per-subject sweep outcome
func (m *Metrics) CountSweep(outcome string) {
	if m != nil {
		m.SweepOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveThrottleWait records time spent blocked on the rate limiter
func (m *Metrics) ObserveThrottleWait(provider string, d time.Duration) {
	if m != nil {
		m.ThrottleWait.WithLabelValues(provider).Observe(d.Seconds())
	}
}
