package ml

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// thresholdData labels a row accepted when its first feature exceeds 0.5.
func thresholdData(rows, cols int, seed uint64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(seed, 7))
	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64())
		}
		if X.At(i, 0) > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestTrainForest_Errors(t *testing.T) {
	X, y := thresholdData(20, 3, 1)

	testCases := []struct {
		name string
		X    mat.Matrix
		y    []float64
		cfg  ForestConfig
	}{
		{"nil matrix", nil, y, ForestConfig{NumEstimators: 5}},
		{"label count mismatch", X, y[:10], ForestConfig{NumEstimators: 5}},
		{"non binary label", X, append(append([]float64(nil), y[:19]...), 2), ForestConfig{NumEstimators: 5}},
		{"no trees", X, y, ForestConfig{NumEstimators: 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TrainForest(context.Background(), tc.X, tc.y, tc.cfg)
			if !errors.Is(err, ErrTrainingFailed) {
				t.Errorf("expected ErrTrainingFailed, got %v", err)
			}
		})
	}
}

func TestTrainForest_CancelledContext(t *testing.T) {
	X, y := thresholdData(50, 3, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainForest(ctx, X, y, ForestConfig{NumEstimators: 10, Seed: 1})
	if !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("expected ErrTrainingFailed, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the cancellation cause to be wrapped, got %v", err)
	}
}

func TestTrainForest_LearnsThreshold(t *testing.T) {
	X, y := thresholdData(400, 4, 3)

	f, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: DefaultNumEstimators, Seed: 42})
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}

	high, _ := f.PredictProba([]float64{0.95, 0.5, 0.5, 0.5})
	low, _ := f.PredictProba([]float64{0.05, 0.5, 0.5, 0.5})
	if high < 0.8 {
		t.Errorf("expected high acceptance probability, got %.3f", high)
	}
	if low > 0.2 {
		t.Errorf("expected low acceptance probability, got %.3f", low)
	}

	imp := f.Importance()
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances should sum to 1, got %v", sum)
	}
	for j := 1; j < len(imp); j++ {
		if imp[j] >= imp[0] {
			t.Errorf("feature %d importance %.3f should be below the informative feature's %.3f", j, imp[j], imp[0])
		}
	}
}

func TestTrainForest_SameSeedSameForest(t *testing.T) {
	X, y := thresholdData(150, 5, 4)

	a, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: 20, Seed: 99, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: 20, Seed: 99, Workers: 8})
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewPCG(5, 5))
	for i := 0; i < 50; i++ {
		x := []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
		pa, _ := a.PredictProba(x)
		pb, _ := b.PredictProba(x)
		if pa != pb {
			t.Fatalf("worker count changed the forest: %v != %v", pa, pb)
		}
	}
}

func TestForest_ProbabilityBounds(t *testing.T) {
	X, y := thresholdData(100, 3, 6)
	f, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: 15, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewPCG(8, 8))
	for i := 0; i < 200; i++ {
		x := []float64{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2}
		p, err := f.PredictProba(x)
		if err != nil {
			t.Fatal(err)
		}
		if p < 0 || p > 1 {
			t.Fatalf("probability %v out of [0,1]", p)
		}
	}

	if _, err := f.PredictProba([]float64{1, 2}); !errors.Is(err, ErrMalformedVector) {
		t.Errorf("expected ErrMalformedVector for short vector, got %v", err)
	}
}

func TestTrainForest_ConstantFeatures(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	y := []float64{1, 0, 1, 0, 1, 1}

	f, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: 5, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, tr := range f.trees {
		if tr.Leaves() != 1 {
			t.Errorf("constant data must not split, got %d leaves", tr.Leaves())
		}
	}
	p, _ := f.PredictProba([]float64{1, 1})
	if p <= 0 || p >= 1 {
		t.Errorf("expected the bootstrap base rate, got %v", p)
	}
}

func TestTrainForest_MaxDepth(t *testing.T) {
	X, y := thresholdData(200, 3, 9)
	f, err := TrainForest(context.Background(), X, y, ForestConfig{NumEstimators: 5, MaxDepth: 2, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, tr := range f.trees {
		if d := tr.Depth(); d > 2 {
			t.Errorf("tree depth %d exceeds limit", d)
		}
	}
}

func TestGini(t *testing.T) {
	if g := gini(0, 10); g != 0 {
		t.Errorf("pure node impurity = %v", g)
	}
	if g := gini(5, 10); g != 0.5 {
		t.Errorf("balanced node impurity = %v", g)
	}
	if g := gini(0, 0); g != 0 {
		t.Errorf("empty node impurity = %v", g)
	}
}
