// Package metrics provides Prometheus metrics collection for the admission
// prediction service. It covers training, per-request scoring, the college
// catalog and the HTTP boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter     // Successful predictions served
	PredictionFailures *prometheus.CounterVec // Failed predictions by reason
	PredictionLatency  prometheus.Histogram   // End-to-end scoring latency in seconds
	PredictionScores   prometheus.Histogram   // Distribution of acceptance probabilities

	// Training metrics
	TrainingDuration prometheus.Histogram // Time spent fitting the pipeline
	TrainingRows     prometheus.Gauge     // Labelled rows used for training
	RetainedFeatures prometheus.Gauge     // Predictor columns kept after selection
	DroppedColumns   prometheus.Gauge     // Dataset columns dropped for missingness

	CatalogSize prometheus.Gauge

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec // Requests by status code and method

	HistoryWrites prometheus.Counter
	HistoryErrors prometheus.Counter
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful admission predictions",
		}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions by reason",
		}, []string{"reason"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds across the whole catalog",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted acceptance probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of classifier training in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		TrainingRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "training_rows",
			Help: "Number of labelled rows the classifier was trained on",
		}),
		RetainedFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "retained_features",
			Help: "Number of predictor columns retained after missingness selection",
		}),
		DroppedColumns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropped_columns",
			Help: "Number of dataset columns dropped for missingness",
		}),
		CatalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_size",
			Help: "Number of colleges in the loaded catalog",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by status code and method",
		}, []string{"code", "method"}),
		HistoryWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of predictions written to the history store",
		}),
		HistoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_errors_total",
			Help: "Total number of failed history store writes",
		}),
	}
}
