package ml

import "sync"

// MockMetrics implements MetricsInterface and TrainingMetrics for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         map[string]int
	latencySum       float64
	predictionScores []float64
	trainingSeconds  float64
	trainingRows     float64
	retained         float64
	dropped          float64
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[reason]++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) PredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

func (m *MockMetrics) TrainingDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingSeconds = v
}

func (m *MockMetrics) TrainingRowsSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingRows = v
}

func (m *MockMetrics) RetainedFeaturesSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retained = v
}

func (m *MockMetrics) DroppedColumnsSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = v
}

// Predictions returns the number of successful predictions recorded.
func (m *MockMetrics) Predictions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions
}

// Failures returns the failure count for reason.
func (m *MockMetrics) Failures(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[reason]
}

// StaticCatalog is a fixed list of college IDs.
type StaticCatalog []string

// IDs returns a copy of the list.
func (c StaticCatalog) IDs() []string {
	return append([]string(nil), c...)
}
