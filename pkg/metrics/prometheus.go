package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts    *prometheus.CounterVec
	horizon      prometheus.Histogram
	modelLatency *prometheus.HistogramVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered with the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors with reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_forecasts_total",
				Help: "Forecast calls by outcome",
			},
			[]string{"outcome"},
		),
		horizon: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricecast_forecast_horizon_days",
				Help:    "Requested forecast horizon in days",
				Buckets: []float64{1, 2, 7, 14, 30, 90, 180, 365, 730},
			},
		),
		modelLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_model_invocation_seconds",
				Help:    "Latency of a single model step",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"model"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast counts a forecast call. Horizon is only observed for calls
// that got as far as computing a positive one.
func (r *Recorder) RecordForecast(outcome string, horizonDays int) {
	r.forecasts.WithLabelValues(outcome).Inc()
	if horizonDays > 0 {
		r.horizon.Observe(float64(horizonDays))
	}
}

func (r *Recorder) RecordModelLatency(model string, seconds float64) {
	r.modelLatency.WithLabelValues(model).Observe(seconds)
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
