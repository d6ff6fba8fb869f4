package features

import (
	"math"
	"testing"

	"ivy-predictor/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// buildTable assembles a table holding every predictor column plus the
// outcome; overrides replace individual columns.
func buildTable(t *testing.T, rows int, outcome []float64, overrides map[string][]float64) *dataset.Table {
	t.Helper()

	names := make([]string, 0, len(PredictorColumns)+1)
	columns := make([][]float64, 0, len(PredictorColumns)+1)
	for j, name := range PredictorColumns {
		col, ok := overrides[name]
		if !ok {
			col = make([]float64, rows)
			for i := range col {
				col[i] = float64((i + j) % 5)
			}
		}
		names = append(names, name)
		columns = append(columns, col)
	}
	for name, col := range overrides {
		if PositionOf(name) < 0 {
			names = append(names, name)
			columns = append(columns, col)
		}
	}
	names = append(names, OutcomeColumn)
	columns = append(columns, outcome)

	table, err := dataset.NewTable(names, columns)
	require.NoError(t, err)
	return table
}

func TestRetainedColumns(t *testing.T) {
	schema := []string{"a", "b", "c", "d"}
	missingness := map[string]float64{"a": 0, "b": 0.49, "c": 0.5, "d": 0.9}

	kept, dropped := RetainedColumns(schema, missingness, 0.5)

	assert.Equal(t, []string{"a", "b"}, kept)
	assert.Equal(t, []string{"c", "d"}, dropped)
}

func TestMissingness(t *testing.T) {
	table, err := dataset.NewTable([]string{"x", "y"}, [][]float64{{1, nan, nan, 4}, {1, 2, 3, 4}})
	require.NoError(t, err)

	m := Missingness(table)
	assert.InDelta(t, 0.5, m["x"], 1e-12)
	assert.InDelta(t, 0.0, m["y"], 1e-12)
}

func TestSelect_DropsUnlabelledRows(t *testing.T) {
	outcome := []float64{1, nan, 0, 1, nan, 0}
	gpa := []float64{3.1, 3.2, 3.3, 3.4, 3.5, 3.6}
	table := buildTable(t, 6, outcome, map[string][]float64{"GPA": gpa})

	sel, err := Select(table, SelectOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, sel.Rows())
	assert.Equal(t, 2, sel.RowsDropped)
	assert.Equal(t, []float64{1, 0, 1, 0}, sel.Y)
	assert.Equal(t, PredictorColumns, sel.Predictors)

	r, c := sel.X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, NumPredictors, c)

	gpaIdx := PositionOf("GPA")
	assert.Equal(t, []float64{3.1, 3.3, 3.4, 3.6}, []float64{
		sel.X.At(0, gpaIdx), sel.X.At(1, gpaIdx), sel.X.At(2, gpaIdx), sel.X.At(3, gpaIdx),
	})
}

func TestSelect_SparseNonPredictorColumnDropped(t *testing.T) {
	outcome := []float64{1, 0, 1, 0}
	table := buildTable(t, 4, outcome, map[string][]float64{
		"essayScore": {nan, nan, 7, nan},
	})

	sel, err := Select(table, SelectOptions{})
	require.NoError(t, err)

	assert.Contains(t, sel.Dropped, "essayScore")
	assert.NotContains(t, sel.Predictors, "essayScore")
	assert.Empty(t, sel.Excluded)
}

func TestSelect_SparsePredictorFailsFast(t *testing.T) {
	outcome := []float64{1, 0, 1, 0}
	table := buildTable(t, 4, outcome, map[string][]float64{
		"SATsubject": {nan, nan, 700, 650},
	})

	_, err := Select(table, SelectOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFeatures)
	assert.Contains(t, err.Error(), "SATsubject")
}

func TestSelect_SparsePredictorReducedSet(t *testing.T) {
	outcome := []float64{1, 0, 1, 0}
	table := buildTable(t, 4, outcome, map[string][]float64{
		"SATsubject": {nan, nan, nan, 650},
	})

	sel, err := Select(table, SelectOptions{AllowReduced: true})
	require.NoError(t, err)

	assert.Len(t, sel.Predictors, NumPredictors-1)
	assert.NotContains(t, sel.Predictors, "SATsubject")
	assert.Contains(t, sel.Dropped, "SATsubject")
	assert.Equal(t, "75% missing", sel.Excluded["SATsubject"])

	_, c := sel.X.Dims()
	assert.Equal(t, NumPredictors-1, c)
}

func TestSelect_OutcomeProblems(t *testing.T) {
	t.Run("outcome absent", func(t *testing.T) {
		table, err := dataset.NewTable([]string{"GPA"}, [][]float64{{3.0, 3.5}})
		require.NoError(t, err)

		_, err = Select(table, SelectOptions{Predictors: []string{"GPA"}})
		assert.ErrorIs(t, err, ErrInsufficientFeatures)
	})

	t.Run("outcome mostly missing", func(t *testing.T) {
		table := buildTable(t, 4, []float64{1, nan, nan, nan}, nil)

		_, err := Select(table, SelectOptions{})
		assert.ErrorIs(t, err, ErrInsufficientFeatures)
	})

	t.Run("non binary outcome", func(t *testing.T) {
		table := buildTable(t, 3, []float64{1, 2, 0}, nil)

		_, err := Select(table, SelectOptions{})
		assert.ErrorIs(t, err, ErrInvalidOutcome)
	})
}

func TestSelect_ThresholdBoundaryIsInclusive(t *testing.T) {
	outcome := []float64{1, 0, 1, 0}
	table := buildTable(t, 4, outcome, map[string][]float64{
		"alumni": {nan, 1, nan, 0},
	})

	_, err := Select(table, SelectOptions{})
	assert.ErrorIs(t, err, ErrInsufficientFeatures, "exactly 50% missing must be dropped")

	sel, err := Select(table, SelectOptions{Threshold: 0.6})
	require.NoError(t, err)
	assert.Contains(t, sel.Predictors, "alumni")
}
