package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses      *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	signals       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastProbEst   *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	probabilities prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analyses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_analyses_total",
				Help: "Completed per-symbol analyses by terminal status",
			},
			[]string{"status"},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_rejections_total",
				Help: "Candidates and symbols rejected, by pipeline stage",
			},
			[]string{"stage"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_signals_total",
				Help: "Approved trade signals by engine",
			},
			[]string{"engine"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastProbEst: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_last_probability",
				Help: "Last composite probability estimate for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		probabilities: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signaldesk_probability_estimates",
				Help:    "Distribution of composite probability estimates",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
	}
}

// RecordAnalysis records one completed analysis with its terminal status.
func (r *Recorder) RecordAnalysis(symbol, status string) {
	_ = symbol // status cardinality only; symbols would blow up the series
	r.analyses.WithLabelValues(status).Inc()
}

// RecordRejection records a pipeline-stage rejection.
func (r *Recorder) RecordRejection(stage string) {
	r.rejections.WithLabelValues(stage).Inc()
}

// RecordSignal records an approved signal by engine.
func (r *Recorder) RecordSignal(engine string) {
	r.signals.WithLabelValues(engine).Inc()
}

// RecordProbability records a composite probability estimate.
func (r *Recorder) RecordProbability(symbol string, probability float64) {
	r.lastProbEst.WithLabelValues(symbol).Set(probability)
	r.probabilities.Observe(probability)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
