// Package evaluation measures the classifier on a held-out slice of the
// dataset and writes the results to disk.
package evaluation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"ivy-predictor/internal/dataset"
)

// DefaultTestFraction is the share of each class held out for scoring.
const DefaultTestFraction = 0.2

// StratifiedSplit partitions the rows of t into train and test tables,
// holding out fraction of the accepted rows and fraction of the rejected
// rows. Rows without an outcome always go to train.
func StratifiedSplit(t *dataset.Table, outcome string, fraction float64, seed uint64) (train, test *dataset.Table, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %v", fraction)
	}
	col, ok := t.Column(outcome)
	if !ok {
		return nil, nil, fmt.Errorf("outcome column %q not in dataset", outcome)
	}

	byClass := map[float64][]int{}
	var trainRows, testRows []int
	for i, v := range col.Values {
		if col.Missing[i] || math.IsNaN(v) {
			trainRows = append(trainRows, i)
			continue
		}
		byClass[v] = append(byClass[v], i)
	}

	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		n := int(math.Round(fraction * float64(len(rows))))
		if n == 0 && len(rows) >= 2 {
			n = 1
		}
		testRows = append(testRows, rows[:n]...)
		trainRows = append(trainRows, rows[n:]...)
	}

	if len(testRows) == 0 {
		return nil, nil, fmt.Errorf("not enough labelled rows to hold out a test set")
	}
	sort.Ints(trainRows)
	sort.Ints(testRows)

	if train, err = t.Subset(trainRows); err != nil {
		return nil, nil, fmt.Errorf("train split: %w", err)
	}
	if test, err = t.Subset(testRows); err != nil {
		return nil, nil, fmt.Errorf("test split: %w", err)
	}
	return train, test, nil
}
