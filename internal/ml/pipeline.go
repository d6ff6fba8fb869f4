package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ivy-predictor/internal/dataset"
	"ivy-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// TrainingMetrics receives the summary of a completed fit.
type TrainingMetrics interface {
	TrainingDurationObserve(float64)
	TrainingRowsSet(float64)
	RetainedFeaturesSet(float64)
	DroppedColumnsSet(float64)
}

// FitOptions configures Fit.
type FitOptions struct {
	Select  features.SelectOptions
	Forest  ForestConfig
	Metrics TrainingMetrics
}

// TrainingStats summarises the data a pipeline was fitted on.
type TrainingStats struct {
	Rows             int           `json:"rows"`
	UnlabelledRows   int           `json:"unlabelled_rows"`
	AcceptedFraction float64       `json:"accepted_fraction"`
	ImputedCells     int           `json:"imputed_cells"`
	Duration         time.Duration `json:"duration"`
	TrainedAt        time.Time     `json:"trained_at"`
}

// Pipeline is the fitted selector, imputer and forest. It maps a full
// predictor vector, in input column order, to a probability of acceptance.
// A Pipeline is immutable once Fit returns.
type Pipeline struct {
	inputs    []string // vector layout expected by Project
	columns   []string // retained predictors, the forest's feature order
	positions []int    // positions[i] is the index of columns[i] in inputs
	excluded  map[string]string
	dropped   []string
	imputer   *features.Imputer
	forest    *Forest
	stats     TrainingStats
}

// Fit runs column selection, median imputation and forest training on t.
func Fit(ctx context.Context, t *dataset.Table, opts FitOptions) (*Pipeline, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: no dataset", ErrTrainingFailed)
	}
	start := time.Now()

	sel, err := features.Select(t, opts.Select)
	if err != nil {
		if errors.Is(err, features.ErrInvalidOutcome) {
			return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
		}
		return nil, err
	}
	if sel.Rows() == 0 {
		return nil, fmt.Errorf("%w: no labelled rows", ErrTrainingFailed)
	}

	imputer, err := features.FitImputer(sel.Predictors, sel.X)
	if err != nil {
		return nil, err
	}
	X, err := imputer.Transform(sel.X)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}

	forest, err := TrainForest(ctx, X, sel.Y, opts.Forest)
	if err != nil {
		return nil, err
	}

	inputs := opts.Select.Predictors
	if inputs == nil {
		inputs = features.PredictorColumns
	}
	p := &Pipeline{
		inputs:    append([]string(nil), inputs...),
		columns:   append([]string(nil), sel.Predictors...),
		positions: make([]int, len(sel.Predictors)),
		excluded:  sel.Excluded,
		dropped:   sel.Dropped,
		imputer:   imputer,
		forest:    forest,
	}
	for i, name := range p.columns {
		p.positions[i] = indexOf(p.inputs, name)
	}

	if err := p.checkConsistent(); err != nil {
		return nil, err
	}

	accepted := 0.0
	for _, v := range sel.Y {
		accepted += v
	}
	imputed := 0
	r, c := sel.X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(sel.X.At(i, j)) {
				imputed++
			}
		}
	}
	p.stats = TrainingStats{
		Rows:             sel.Rows(),
		UnlabelledRows:   sel.RowsDropped,
		AcceptedFraction: accepted / float64(sel.Rows()),
		ImputedCells:     imputed,
		Duration:         time.Since(start),
		TrainedAt:        time.Now(),
	}

	if opts.Metrics != nil {
		opts.Metrics.TrainingDurationObserve(p.stats.Duration.Seconds())
		opts.Metrics.TrainingRowsSet(float64(p.stats.Rows))
		opts.Metrics.RetainedFeaturesSet(float64(len(p.columns)))
		opts.Metrics.DroppedColumnsSet(float64(len(p.dropped)))
	}

	log.Info().
		Int("rows", p.stats.Rows).
		Int("features", len(p.columns)).
		Int("imputed_cells", imputed).
		Int("trees", forest.NumTrees()).
		Float64("accepted_fraction", p.stats.AcceptedFraction).
		Dur("duration", p.stats.Duration).
		Msg("Classifier trained")

	return p, nil
}

// checkConsistent verifies that the selector, imputer and forest agree on the
// feature layout.
func (p *Pipeline) checkConsistent() error {
	n := len(p.columns)
	if len(p.positions) != n || len(p.imputer.Medians) != n || p.forest.NumFeatures() != n {
		return fmt.Errorf("%w: feature layout mismatch: %d columns, %d medians, forest width %d",
			ErrTrainingFailed, n, len(p.imputer.Medians), p.forest.NumFeatures())
	}
	for i, pos := range p.positions {
		if pos < 0 {
			return fmt.Errorf("%w: retained column %q is not an input column", ErrTrainingFailed, p.columns[i])
		}
	}
	return nil
}

// Project selects the retained columns from a full input vector and fills
// any missing entries with training medians.
func (p *Pipeline) Project(vector []float64) ([]float64, error) {
	if len(vector) != len(p.inputs) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrMalformedVector, len(p.inputs), len(vector))
	}
	x := make([]float64, len(p.positions))
	for i, pos := range p.positions {
		x[i] = vector[pos]
	}
	return p.imputer.TransformVector(x)
}

// PredictProba returns the probability of acceptance for a full input vector.
func (p *Pipeline) PredictProba(vector []float64) (float64, error) {
	if p == nil {
		return 0, ErrClassifierNotReady
	}
	if err := validateVector(vector, len(p.inputs)); err != nil {
		return 0, err
	}
	x, err := p.Project(vector)
	if err != nil {
		return 0, err
	}
	return p.forest.PredictProba(x)
}

// NumInputs is the length of the vectors PredictProba accepts.
func (p *Pipeline) NumInputs() int { return len(p.inputs) }

// Inputs returns the input column order.
func (p *Pipeline) Inputs() []string { return append([]string(nil), p.inputs...) }

// Columns returns the retained predictor columns.
func (p *Pipeline) Columns() []string { return append([]string(nil), p.columns...) }

// Dropped returns every dataset column removed for missingness.
func (p *Pipeline) Dropped() []string { return append([]string(nil), p.dropped...) }

// Excluded returns the requested predictors that were not retained, with the
// reason.
func (p *Pipeline) Excluded() map[string]string {
	out := make(map[string]string, len(p.excluded))
	for k, v := range p.excluded {
		out[k] = v
	}
	return out
}

// Medians returns the imputation median of each retained column.
func (p *Pipeline) Medians() map[string]float64 {
	out := make(map[string]float64, len(p.columns))
	for i, name := range p.columns {
		out[name] = p.imputer.Medians[i]
	}
	return out
}

// Forest returns the fitted ensemble.
func (p *Pipeline) Forest() *Forest { return p.forest }

// Stats returns the training summary.
func (p *Pipeline) Stats() TrainingStats { return p.stats }

// FeatureImportance ranks the retained columns by impurity importance.
func (p *Pipeline) FeatureImportance() []FeatureScore {
	return RankFeatures(p.columns, p.forest.Importance(), p.imputer.Medians)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
