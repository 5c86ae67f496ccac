package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastValue     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	alertsFired   *prometheus.CounterVec
	activeStreams prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_observations_total",
				Help: "Total number of observations recorded",
			},
			[]string{"asset"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_last_value",
				Help: "Last recorded value for an asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_alerts_triggered_total",
				Help: "Total number of alert rules that fired",
			},
			[]string{"asset"},
		),
		activeStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_active_streams",
				Help: "Number of live stream subscriptions",
			},
		),
	}
}

// RecordObservation records one accepted observation for an asset.
func (r *Recorder) RecordObservation(asset string, value float64) {
	r.observations.WithLabelValues(asset).Inc()
	r.lastValue.WithLabelValues(asset).Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordAlertTriggered records a fired alert rule.
func (r *Recorder) RecordAlertTriggered(asset string) {
	r.alertsFired.WithLabelValues(asset).Inc()
}

// SetActiveStreams sets the current stream subscription count.
func (r *Recorder) SetActiveStreams(n int) {
	r.activeStreams.Set(float64(n))
}
