package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// DefaultNumEstimators is the number of trees in the ensemble.
const DefaultNumEstimators = 50

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	NumEstimators  int
	MaxDepth       int    // 0 grows trees until leaves are pure
	MinSamplesLeaf int    // 0 means 1
	MaxFeatures    int    // 0 means ceil(sqrt(p))
	Seed           uint64 // 0 seeds from the clock
	Workers        int    // 0 means GOMAXPROCS
}

// Forest is a bagged ensemble of Gini classification trees. A fitted forest is
// immutable and safe for concurrent use.
type Forest struct {
	trees       []*Tree
	numFeatures int
	importance  []float64
	seed        uint64
}

// TrainForest fits cfg.NumEstimators trees on bootstrap samples of X. Labels
// must be 0 (rejected) or 1 (accepted).
func TrainForest(ctx context.Context, X mat.Matrix, y []float64, cfg ForestConfig) (*Forest, error) {
	if X == nil {
		return nil, fmt.Errorf("%w: no training matrix", ErrTrainingFailed)
	}
	rows, p := X.Dims()
	if rows == 0 || p == 0 {
		return nil, fmt.Errorf("%w: empty training matrix", ErrTrainingFailed)
	}
	if len(y) != rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrTrainingFailed, len(y), rows)
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: label %v at row %d is not 0 or 1", ErrTrainingFailed, v, i)
		}
	}
	if cfg.NumEstimators < 1 {
		return nil, fmt.Errorf("%w: need at least one tree, got %d", ErrTrainingFailed, cfg.NumEstimators)
	}

	tc := treeConfig{
		maxDepth:       cfg.MaxDepth,
		minSamplesLeaf: max(cfg.MinSamplesLeaf, 1),
		maxFeatures:    cfg.MaxFeatures,
	}
	if tc.maxFeatures <= 0 {
		tc.maxFeatures = int(math.Ceil(math.Sqrt(float64(p))))
	}
	tc.maxFeatures = min(tc.maxFeatures, p)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
		for i, v := range cols[j] {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: missing value at row %d column %d", ErrTrainingFailed, i, j)
			}
		}
	}

	// Per-tree seeds are drawn up front so the result does not depend on
	// scheduling.
	base := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	treeSeeds := make([]uint64, cfg.NumEstimators)
	for i := range treeSeeds {
		treeSeeds[i] = base.Uint64()
	}

	trees := make([]*Tree, cfg.NumEstimators)
	importances := make([][]float64, cfg.NumEstimators)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(treeSeeds[i], uint64(i)))
			sample := make([]int, rows)
			for k := range sample {
				sample[k] = rng.IntN(rows)
			}
			trees[i], importances[i] = growTree(cols, y, sample, tc, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}

	f := &Forest{
		trees:       trees,
		numFeatures: p,
		importance:  meanImportance(trees, importances, p),
		seed:        seed,
	}

	log.Debug().
		Int("trees", len(trees)).
		Int("rows", rows).
		Int("features", p).
		Int("max_features", tc.maxFeatures).
		Uint64("seed", seed).
		Msg("Random forest trained")

	return f, nil
}

// meanImportance averages the normalised impurity decrease of every tree
// that split at least once.
func meanImportance(trees []*Tree, perTree [][]float64, p int) []float64 {
	out := make([]float64, p)
	used := 0
	for i, imp := range perTree {
		if len(trees[i].nodes) <= 1 {
			continue
		}
		total := 0.0
		for _, v := range imp {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range imp {
			out[j] += v / total
		}
		used++
	}
	if used == 0 {
		return out
	}
	total := 0.0
	for j := range out {
		out[j] /= float64(used)
		total += out[j]
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

// PredictProba returns the probability of acceptance for x: the mean of the
// per-tree leaf fractions.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if f == nil || len(f.trees) == 0 {
		return 0, ErrClassifierNotReady
	}
	if len(x) != f.numFeatures {
		return 0, fmt.Errorf("%w: forest expects %d features, got %d", ErrMalformedVector, f.numFeatures, len(x))
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	p := sum / float64(len(f.trees))
	return math.Min(1, math.Max(0, p)), nil
}

// NumFeatures returns the width of the vectors the forest was trained on.
func (f *Forest) NumFeatures() int { return f.numFeatures }

// NumTrees returns the ensemble size.
func (f *Forest) NumTrees() int { return len(f.trees) }

// Seed returns the seed the forest was trained with.
func (f *Forest) Seed() uint64 { return f.seed }

// Importance returns a copy of the impurity-based feature importances, which
// sum to 1 unless no tree ever split.
func (f *Forest) Importance() []float64 {
	return append([]float64(nil), f.importance...)
}

// MeanDepth is the average depth of the trees.
func (f *Forest) MeanDepth() float64 {
	if len(f.trees) == 0 {
		return 0
	}
	total := 0
	for _, t := range f.trees {
		total += t.Depth()
	}
	return float64(total) / float64(len(f.trees))
}
