package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Imputer replaces missing cells with the training median of their column.
type Imputer struct {
	Columns []string
	Medians []float64
}

// FitImputer computes the median of the observed values of every column of X.
func FitImputer(names []string, X *mat.Dense) (*Imputer, error) {
	if X == nil {
		return nil, fmt.Errorf("%w: no rows to impute from", ErrInsufficientFeatures)
	}
	_, c := X.Dims()
	if c != len(names) {
		return nil, fmt.Errorf("imputer: %d names for %d columns", len(names), c)
	}

	im := &Imputer{
		Columns: append([]string(nil), names...),
		Medians: make([]float64, c),
	}
	for j := 0; j < c; j++ {
		m := Median(mat.Col(nil, j, X))
		if math.IsNaN(m) {
			return nil, fmt.Errorf("%w: column %q has no observed values", ErrInsufficientFeatures, names[j])
		}
		im.Medians[j] = m
	}
	return im, nil
}

// Transform returns a copy of X with every NaN replaced by its column median.
func (im *Imputer) Transform(X *mat.Dense) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != len(im.Medians) {
		return nil, fmt.Errorf("imputer fitted on %d columns, got %d", len(im.Medians), c)
	}
	out := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(out.At(i, j)) {
				out.Set(i, j, im.Medians[j])
			}
		}
	}
	return out, nil
}

// TransformVector fills the NaN entries of a single row.
func (im *Imputer) TransformVector(v []float64) ([]float64, error) {
	if len(v) != len(im.Medians) {
		return nil, fmt.Errorf("imputer fitted on %d columns, got %d values", len(im.Medians), len(v))
	}
	out := make([]float64, len(v))
	for j, x := range v {
		if math.IsNaN(x) {
			x = im.Medians[j]
		}
		out[j] = x
	}
	return out, nil
}

// MedianOf returns the fitted median of the named column.
func (im *Imputer) MedianOf(name string) (float64, bool) {
	for j, c := range im.Columns {
		if c == name {
			return im.Medians[j], true
		}
	}
	return 0, false
}

// Median returns the median of the non-NaN values, averaging the two middle
// values for an even count. It returns NaN when no value is present.
func Median(values []float64) float64 {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	n := len(observed)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(observed)
	if n%2 == 1 {
		return observed[n/2]
	}
	return (observed[n/2-1] + observed[n/2]) / 2
}
