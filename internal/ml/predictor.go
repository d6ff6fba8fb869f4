package ml

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the prediction service
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc(reason string)
	PredictionLatencyObserve(float64)
	PredictionScoresObserve(float64)
}

// Catalog is the ordered list of college identifiers a prediction fans out to.
type Catalog interface {
	IDs() []string
}

// Result is the probability of acceptance reported for one college.
type Result struct {
	College string  `json:"college"`
	Prob    float64 `json:"prob"`
}

// Service scores applicant vectors against every college in a catalog.
type Service struct {
	pipeline *Pipeline
	catalog  Catalog
	metrics  MetricsInterface
}

// NewService wires a fitted pipeline to a catalog. metrics may be nil.
func NewService(p *Pipeline, c Catalog, m MetricsInterface) *Service {
	return &Service{pipeline: p, catalog: c, metrics: m}
}

// Predict returns one Result per catalog entry, in catalog order. The
// classifier is called once per entry with the same vector.
func (s *Service) Predict(vector []float64) ([]Result, error) {
	start := time.Now()

	if s == nil || s.pipeline == nil {
		s.fail("not_ready")
		return nil, ErrClassifierNotReady
	}
	if err := validateVector(vector, s.pipeline.NumInputs()); err != nil {
		s.fail("malformed_vector")
		return nil, err
	}

	var ids []string
	if s.catalog != nil {
		ids = s.catalog.IDs()
	}
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		prob, err := s.pipeline.PredictProba(vector)
		if err != nil {
			reason := "internal"
			if errors.Is(err, ErrMalformedVector) {
				reason = "malformed_vector"
			}
			s.fail(reason)
			return nil, err
		}
		results = append(results, Result{College: id, Prob: prob})
	}

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		s.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		if len(results) > 0 {
			s.metrics.PredictionScoresObserve(results[0].Prob)
		}
	}

	log.Debug().
		Int("colleges", len(results)).
		Dur("latency", time.Since(start)).
		Msg("Prediction complete")

	return results, nil
}

func (s *Service) fail(reason string) {
	if s != nil && s.metrics != nil {
		s.metrics.PredictionFailuresInc(reason)
	}
}

// Pipeline returns the fitted pipeline, or nil.
func (s *Service) Pipeline() *Pipeline {
	if s == nil {
		return nil
	}
	return s.pipeline
}

// CatalogSize is the number of colleges every prediction covers.
func (s *Service) CatalogSize() int {
	if s == nil || s.catalog == nil {
		return 0
	}
	return len(s.catalog.IDs())
}

// Ready reports whether Predict can succeed.
func (s *Service) Ready() bool {
	return s != nil && s.pipeline != nil
}

// ModelInfo describes the fitted pipeline.
type ModelInfo struct {
	Columns          []string           `json:"columns"`
	Dropped          []string           `json:"dropped_columns"`
	Excluded         map[string]string  `json:"excluded_predictors,omitempty"`
	Medians          map[string]float64 `json:"medians"`
	Importance       []FeatureScore     `json:"feature_importance"`
	Estimators       int                `json:"estimators"`
	MeanTreeDepth    float64            `json:"mean_tree_depth"`
	Seed             uint64             `json:"seed"`
	TrainingRows     int                `json:"training_rows"`
	UnlabelledRows   int                `json:"unlabelled_rows"`
	AcceptedFraction float64            `json:"accepted_fraction"`
	ImputedCells     int                `json:"imputed_cells"`
	TrainingSeconds  float64            `json:"training_seconds"`
	TrainedAt        time.Time          `json:"trained_at"`
	CatalogSize      int                `json:"catalog_size"`
}

// Info returns a snapshot of the model, or ErrClassifierNotReady.
func (s *Service) Info() (ModelInfo, error) {
	if !s.Ready() {
		return ModelInfo{}, ErrClassifierNotReady
	}
	p := s.pipeline
	stats := p.Stats()
	return ModelInfo{
		Columns:          p.Columns(),
		Dropped:          p.Dropped(),
		Excluded:         p.Excluded(),
		Medians:          p.Medians(),
		Importance:       p.FeatureImportance(),
		Estimators:       p.Forest().NumTrees(),
		MeanTreeDepth:    p.Forest().MeanDepth(),
		Seed:             p.Forest().Seed(),
		TrainingRows:     stats.Rows,
		UnlabelledRows:   stats.UnlabelledRows,
		AcceptedFraction: stats.AcceptedFraction,
		ImputedCells:     stats.ImputedCells,
		TrainingSeconds:  stats.Duration.Seconds(),
		TrainedAt:        stats.TrainedAt,
		CatalogSize:      s.CatalogSize(),
	}, nil
}
