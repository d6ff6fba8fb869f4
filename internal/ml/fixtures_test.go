package ml

import (
	"math"
	"math/rand/v2"
	"testing"

	"ivy-predictor/internal/dataset"
	"ivy-predictor/internal/features"
)

// synthTable builds an admissions table in which acceptance is driven by GPA
// and SAT. Every fifth cell of averageAP is missing.
func synthTable(t *testing.T, rows int, seed uint64, overrides map[string][]float64) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 1))

	cols := make(map[string][]float64, features.NumPredictors+1)
	for _, name := range features.PredictorColumns {
		cols[name] = make([]float64, rows)
	}
	outcome := make([]float64, rows)

	for i := 0; i < rows; i++ {
		for _, name := range features.PredictorColumns {
			cols[name][i] = rng.Float64()
		}
		cols["female"][i] = float64(rng.IntN(2))
		cols["alumni"][i] = float64(rng.IntN(2))
		if i%5 == 0 {
			cols["averageAP"][i] = math.NaN()
		}
		score := 0.7*cols["GPA"][i] + 0.3*cols["admissionstest"][i]
		if score > 0.5 {
			outcome[i] = 1
		}
	}
	for name, col := range overrides {
		if name == features.OutcomeColumn {
			outcome = col
			continue
		}
		cols[name] = col
	}

	names := append([]string(nil), features.PredictorColumns...)
	for name := range overrides {
		if features.PositionOf(name) < 0 && name != features.OutcomeColumn {
			names = append(names, name)
		}
	}
	columns := make([][]float64, 0, len(names)+1)
	for _, name := range names {
		columns = append(columns, cols[name])
	}
	names = append(names, features.OutcomeColumn)
	columns = append(columns, outcome)

	table, err := dataset.NewTable(names, columns)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return table
}

// applicant returns a full predictor vector with every value set to v,
// except for the given overrides.
func applicant(v float64, overrides map[string]float64) []float64 {
	vector := make([]float64, features.NumPredictors)
	for i := range vector {
		vector[i] = v
	}
	for name, x := range overrides {
		vector[features.PositionOf(name)] = x
	}
	return vector
}

func fitOptions(seed uint64) FitOptions {
	return FitOptions{
		Forest: ForestConfig{NumEstimators: DefaultNumEstimators, Seed: seed},
	}
}
