package observability

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationCollector exposes precoding evaluation metrics. It implements
// core.Recorder.
type EvaluationCollector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	GramCondition      *prometheus.HistogramVec
	PeakEfficiency     *prometheus.GaugeVec
}

// NewEvaluationCollector registers evaluation metrics against the provided
// registerer.
func NewEvaluationCollector(reg prometheus.Registerer) (*EvaluationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "precoding_evaluations_total",
		Help: "Scenario evaluations, labeled by precoding method and outcome.",
	}, []string{"method", "outcome"})
	evaluations, err := registerCounterVec(reg, evaluations, "precoding_evaluations_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "precoding_evaluation_duration_seconds",
		Help:    "Wall time of one scenario evaluation: channel, weights, and sweep.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method"})
	duration, err = registerHistogramVec(reg, duration, "precoding_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	condition := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "precoding_gram_condition_number",
		Help:    "Per-user 2-norm condition number of the zero-forcing Gram matrix.",
		Buckets: prometheus.ExponentialBuckets(1, 10, 13),
	}, []string{"method"})
	condition, err = registerHistogramVec(reg, condition, "precoding_gram_condition_number")
	if err != nil {
		return nil, err
	}

	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "precoding_peak_spectral_efficiency",
		Help: "Peak aggregate spectral efficiency (bits/s/Hz) of the most recent evaluation per method.",
	}, []string{"method"})
	peak, err = registerGaugeVec(reg, peak, "precoding_peak_spectral_efficiency")
	if err != nil {
		return nil, err
	}

	return &EvaluationCollector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationDuration: duration,
		GramCondition:      condition,
		PeakEfficiency:     peak,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EvaluationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveEvaluation counts one evaluation and records its duration.
func (c *EvaluationCollector) ObserveEvaluation(method, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Evaluations != nil {
		c.Evaluations.WithLabelValues(method, outcome).Inc()
	}
	if c.EvaluationDuration != nil {
		c.EvaluationDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

// ObserveCondition records one Gram condition number. Infinite values from
// singular matrices land in the +Inf bucket; NaN is dropped.
func (c *EvaluationCollector) ObserveCondition(method string, condition float64) {
	if c == nil || c.GramCondition == nil || math.IsNaN(condition) {
		return
	}
	c.GramCondition.WithLabelValues(method).Observe(condition)
}

// SetPeakSpectralEfficiency updates the per-method peak gauge.
func (c *EvaluationCollector) SetPeakSpectralEfficiency(method string, bitsPerHz float64) {
	if c == nil || c.PeakEfficiency == nil {
		return
	}
	c.PeakEfficiency.WithLabelValues(method).Set(bitsPerHz)
}
