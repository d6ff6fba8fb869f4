package ml

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTrainingFailed is returned when the classifier cannot be fitted.
	ErrTrainingFailed = errors.New("training failed")
	// ErrClassifierNotReady is returned when scoring is attempted without a
	// fitted pipeline.
	ErrClassifierNotReady = errors.New("classifier not ready")
	// ErrMalformedVector is returned for an applicant vector of the wrong
	// length or with non-finite values.
	ErrMalformedVector = errors.New("malformed feature vector")
)

func validateVector(vector []float64, want int) error {
	if len(vector) != want {
		return fmt.Errorf("%w: expected %d values, got %d", ErrMalformedVector, want, len(vector))
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d is not a finite number", ErrMalformedVector, i)
		}
	}
	return nil
}
