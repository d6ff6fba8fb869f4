package metrics

import (
	"ivy-predictor/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ ml.MetricsInterface = (*MetricsWrapper)(nil)
	_ ml.TrainingMetrics  = (*MetricsWrapper)(nil)
)

// MetricsWrapper adapts Metrics to the interfaces the ml and server packages
// consume.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc(reason string) {
	w.m.PredictionFailures.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *MetricsWrapper) PredictionScoresObserve(v float64) {
	w.m.PredictionScores.Observe(v)
}

func (w *MetricsWrapper) TrainingDurationObserve(v float64) {
	w.m.TrainingDuration.Observe(v)
}

func (w *MetricsWrapper) TrainingRowsSet(v float64) {
	w.m.TrainingRows.Set(v)
}

func (w *MetricsWrapper) RetainedFeaturesSet(v float64) {
	w.m.RetainedFeatures.Set(v)
}

func (w *MetricsWrapper) DroppedColumnsSet(v float64) {
	w.m.DroppedColumns.Set(v)
}

func (w *MetricsWrapper) CatalogSizeSet(v float64) {
	w.m.CatalogSize.Set(v)
}

func (w *MetricsWrapper) HistoryWritesInc() {
	w.m.HistoryWrites.Inc()
}

func (w *MetricsWrapper) HistoryErrorsInc() {
	w.m.HistoryErrors.Inc()
}

// HTTPRequests is the counter used to instrument the HTTP handler.
func (w *MetricsWrapper) HTTPRequests() *prometheus.CounterVec {
	return w.m.HTTPRequests
}
