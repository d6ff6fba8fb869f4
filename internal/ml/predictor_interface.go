// Package ml trains the admission classifier and serves per-college
// probabilities from it.
//
// Training runs column selection, median imputation and a bagged random
// forest of Gini trees. The fitted Pipeline is immutable and shared by all
// requests.
package ml

// PredictorInterface is what the HTTP layer needs from a prediction service.
type PredictorInterface interface {
	// Predict scores one applicant vector for every college in the catalog.
	Predict(vector []float64) ([]Result, error)

	// Info describes the fitted model. It fails with ErrClassifierNotReady
	// when nothing has been trained.
	Info() (ModelInfo, error)

	Ready() bool
	CatalogSize() int
}

var _ PredictorInterface = (*Service)(nil)
