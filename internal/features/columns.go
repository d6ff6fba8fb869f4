// Package features owns the predictor column contract and the data cleaning
// steps that run before training: missingness-based column selection and
// median imputation.
package features

// PredictorColumns is the ordered predictor set. The order is shared by the
// training matrix and the /predict query contract.
var PredictorColumns = []string{
	"admissionstest",
	"AP",
	"averageAP",
	"SATsubject",
	"GPA",
	"schooltype",
	"intendedgradyear",
	"female",
	"MinorityRace",
	"international",
	"sports",
	"earlyAppl",
	"alumni",
	"outofstate",
	"acceptrate",
	"size",
	"public",
	"finAidPct",
	"instatePct",
}

// NumPredictors is the length of an applicant vector.
const NumPredictors = 19

// OutcomeColumn is the default name of the binary admission outcome.
const OutcomeColumn = "acceptStatus"

// DefaultMissingnessThreshold drops any column with at least half of its cells missing.
const DefaultMissingnessThreshold = 0.5

// Outcome labels.
const (
	Rejected = float64(0)
	Accepted = float64(1)
)

// PositionOf returns the index of name in PredictorColumns, or -1.
func PositionOf(name string) int {
	for i, c := range PredictorColumns {
		if c == name {
			return i
		}
	}
	return -1
}
