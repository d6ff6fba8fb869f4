package features

import (
	"errors"
	"fmt"
	"strings"

	"ivy-predictor/internal/dataset"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInsufficientFeatures is returned when the predictor set cannot be
	// assembled from the dataset.
	ErrInsufficientFeatures = errors.New("insufficient features")
	// ErrInvalidOutcome is returned when an outcome value is not 0 or 1.
	ErrInvalidOutcome = errors.New("invalid outcome value")
)

// SelectOptions configures Select.
type SelectOptions struct {
	Predictors   []string // defaults to PredictorColumns
	Outcome      string   // defaults to OutcomeColumn
	Threshold    float64  // defaults to DefaultMissingnessThreshold
	AllowReduced bool
}

// Selection is the outcome-complete training table restricted to the
// retained predictors. X may still contain NaN cells.
type Selection struct {
	Predictors  []string           // retained predictors, in requested order
	Excluded    map[string]string  // requested predictor -> reason it was not retained
	Dropped     []string           // every dataset column at or above the threshold
	Missingness map[string]float64 // per-column missing fraction over the raw table
	X           *mat.Dense         // nil when no labelled rows survive
	Y           []float64
	RowsDropped int // rows removed for a missing outcome
}

// Rows returns the number of labelled rows.
func (s *Selection) Rows() int {
	return len(s.Y)
}

// Missingness returns the fraction of missing cells of every column.
func Missingness(t *dataset.Table) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		out[name] = float64(col.MissingCount()) / float64(t.Rows())
	}
	return out
}

// RetainedColumns splits schema into the columns whose missing fraction is
// below threshold and those at or above it. Order follows schema.
func RetainedColumns(schema []string, missingness map[string]float64, threshold float64) (kept, dropped []string) {
	for _, name := range schema {
		if missingness[name] >= threshold {
			dropped = append(dropped, name)
			continue
		}
		kept = append(kept, name)
	}
	return kept, dropped
}

// Select drops sparse columns, then drops unlabelled rows, and returns the
// predictor matrix with the binary outcome vector.
func Select(t *dataset.Table, opts SelectOptions) (*Selection, error) {
	if opts.Predictors == nil {
		opts.Predictors = PredictorColumns
	}
	if opts.Outcome == "" {
		opts.Outcome = OutcomeColumn
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultMissingnessThreshold
	}

	missingness := Missingness(t)
	kept, dropped := RetainedColumns(t.Columns(), missingness, opts.Threshold)
	keptSet := make(map[string]bool, len(kept))
	for _, name := range kept {
		keptSet[name] = true
	}

	outcome, ok := t.Column(opts.Outcome)
	if !ok {
		return nil, fmt.Errorf("%w: outcome column %q not in dataset", ErrInsufficientFeatures, opts.Outcome)
	}
	if !keptSet[opts.Outcome] {
		return nil, fmt.Errorf("%w: outcome column %q is %.0f%% missing", ErrInsufficientFeatures, opts.Outcome, missingness[opts.Outcome]*100)
	}
	if !outcome.Numeric {
		return nil, fmt.Errorf("%w: outcome column %q is not numeric", ErrInvalidOutcome, opts.Outcome)
	}

	sel := &Selection{
		Excluded:    make(map[string]string),
		Dropped:     dropped,
		Missingness: missingness,
	}

	var columns []*dataset.Column
	for _, name := range opts.Predictors {
		col, ok := t.Column(name)
		switch {
		case !ok:
			sel.Excluded[name] = "absent from dataset"
		case !keptSet[name]:
			sel.Excluded[name] = fmt.Sprintf("%.0f%% missing", missingness[name]*100)
		case !col.Numeric:
			sel.Excluded[name] = "non-numeric values"
		default:
			sel.Predictors = append(sel.Predictors, name)
			columns = append(columns, col)
		}
	}

	if len(sel.Excluded) > 0 {
		if !opts.AllowReduced {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientFeatures, describeExcluded(opts.Predictors, sel.Excluded))
		}
		for _, name := range opts.Predictors {
			if reason, ok := sel.Excluded[name]; ok {
				log.Warn().Str("column", name).Str("reason", reason).Msg("predictor excluded, continuing with reduced feature set")
			}
		}
	}
	if len(sel.Predictors) == 0 {
		return nil, fmt.Errorf("%w: no predictor columns retained", ErrInsufficientFeatures)
	}

	var labelled []int
	for i, missing := range outcome.Missing {
		if missing {
			sel.RowsDropped++
			continue
		}
		v := outcome.Values[i]
		if v != Rejected && v != Accepted {
			return nil, fmt.Errorf("%w: row %d has %s=%v", ErrInvalidOutcome, i+1, opts.Outcome, v)
		}
		labelled = append(labelled, i)
	}

	sel.Y = make([]float64, len(labelled))
	if len(labelled) > 0 {
		sel.X = mat.NewDense(len(labelled), len(columns), nil)
	}
	for r, src := range labelled {
		sel.Y[r] = outcome.Values[src]
		for c, col := range columns {
			sel.X.Set(r, c, col.Values[src])
		}
	}

	log.Info().
		Int("retained_predictors", len(sel.Predictors)).
		Strs("dropped_columns", sel.Dropped).
		Int("labelled_rows", len(labelled)).
		Int("unlabelled_rows", sel.RowsDropped).
		Msg("feature selection complete")

	return sel, nil
}

func describeExcluded(order []string, excluded map[string]string) string {
	parts := make([]string, 0, len(excluded))
	for _, name := range order {
		if reason, ok := excluded[name]; ok {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, reason))
		}
	}
	return strings.Join(parts, ", ")
}
