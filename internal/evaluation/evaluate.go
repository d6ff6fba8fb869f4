package evaluation

import (
	"context"
	"fmt"
	"time"

	"ivy-predictor/internal/dataset"
	"ivy-predictor/internal/features"
	"ivy-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

// Options configures Run.
type Options struct {
	TestFraction float64 // defaults to DefaultTestFraction
	Seed         uint64  // split seed; also the forest seed when Fit.Forest.Seed is 0
	Threshold    float64 // accuracy cut-off, defaults to 0.5
	Fit          ml.FitOptions
}

// HoldoutPrediction is the score of one held-out row.
type HoldoutPrediction struct {
	Row         int     `json:"row"`
	Actual      float64 `json:"actual"`
	Probability float64 `json:"probability"`
}

// Report is the outcome of one holdout evaluation.
type Report struct {
	TrainRows        int                 `json:"train_rows"`
	TestRows         int                 `json:"test_rows"`
	TestFraction     float64             `json:"test_fraction"`
	Seed             uint64              `json:"seed"`
	Threshold        float64             `json:"threshold"`
	Accuracy         float64             `json:"accuracy"`
	Brier            float64             `json:"brier"`
	LogLoss          float64             `json:"log_loss"`
	AUC              float64             `json:"auc"`
	BaseRate         float64             `json:"base_rate"`
	Columns          []string            `json:"columns"`
	Dropped          []string            `json:"dropped_columns"`
	Importance       []ml.FeatureScore   `json:"feature_importance"`
	Estimators       int                 `json:"estimators"`
	TrainingDuration time.Duration       `json:"training_duration"`
	Predictions      []HoldoutPrediction `json:"predictions"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// Run splits t, fits a pipeline on the training part and scores the held-out
// rows. Missing predictor cells in the holdout are filled with training
// medians.
func Run(ctx context.Context, t *dataset.Table, opts Options) (*Report, error) {
	if opts.TestFraction == 0 {
		opts.TestFraction = DefaultTestFraction
	}
	if opts.Threshold == 0 {
		opts.Threshold = 0.5
	}
	if opts.Fit.Forest.Seed == 0 {
		opts.Fit.Forest.Seed = opts.Seed
	}
	outcome := opts.Fit.Select.Outcome
	if outcome == "" {
		outcome = features.OutcomeColumn
	}

	train, test, err := StratifiedSplit(t, outcome, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}

	p, err := ml.Fit(ctx, train, opts.Fit)
	if err != nil {
		return nil, err
	}

	preds, err := scoreHoldout(p, test, outcome)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, len(preds))
	labels := make([]float64, len(preds))
	accepted := 0.0
	for i, hp := range preds {
		probs[i] = hp.Probability
		labels[i] = hp.Actual
		accepted += hp.Actual
	}

	report := &Report{
		TrainRows:        p.Stats().Rows,
		TestRows:         len(preds),
		TestFraction:     opts.TestFraction,
		Seed:             opts.Seed,
		Threshold:        opts.Threshold,
		Accuracy:         Accuracy(probs, labels, opts.Threshold),
		Brier:            Brier(probs, labels),
		LogLoss:          LogLoss(probs, labels),
		AUC:              AUC(probs, labels),
		BaseRate:         accepted / float64(len(preds)),
		Columns:          p.Columns(),
		Dropped:          p.Dropped(),
		Importance:       p.FeatureImportance(),
		Estimators:       p.Forest().NumTrees(),
		TrainingDuration: p.Stats().Duration,
		Predictions:      preds,
		GeneratedAt:      time.Now(),
	}

	log.Info().
		Int("train_rows", report.TrainRows).
		Int("test_rows", report.TestRows).
		Float64("accuracy", report.Accuracy).
		Float64("auc", report.AUC).
		Float64("brier", report.Brier).
		Msg("Holdout evaluation complete")

	return report, nil
}

// scoreHoldout builds each labelled row's input vector from the test table
// and scores it.
func scoreHoldout(p *ml.Pipeline, test *dataset.Table, outcome string) ([]HoldoutPrediction, error) {
	inputs := p.Inputs()
	cols := make([]*dataset.Column, len(inputs))
	for i, name := range inputs {
		// Columns excluded from training may be absent; Project ignores them.
		if c, ok := test.Column(name); ok {
			cols[i] = c
		}
	}
	y, ok := test.Column(outcome)
	if !ok {
		return nil, fmt.Errorf("outcome column %q not in holdout", outcome)
	}

	var preds []HoldoutPrediction
	vector := make([]float64, len(inputs))
	for r := 0; r < test.Rows(); r++ {
		if y.Missing[r] {
			continue
		}
		for i, c := range cols {
			if c == nil {
				vector[i] = 0
				continue
			}
			vector[i] = c.Values[r]
		}
		x, err := p.Project(vector)
		if err != nil {
			return nil, err
		}
		prob, err := p.Forest().PredictProba(x)
		if err != nil {
			return nil, err
		}
		preds = append(preds, HoldoutPrediction{Row: r, Actual: y.Values[r], Probability: prob})
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("holdout has no labelled rows")
	}
	return preds, nil
}
