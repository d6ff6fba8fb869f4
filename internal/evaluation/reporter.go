package evaluation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ivy-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

// Output file names written by GenerateReport.
const (
	SummaryFile     = "evaluation_summary.txt"
	JSONFile        = "evaluation.json"
	PredictionsFile = "holdout_predictions.csv"
	ImportanceFile  = "feature_importance.json"
)

// Reporter generates evaluation reports
type Reporter struct {
	report     *Report
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(report *Report, outputPath string) *Reporter {
	return &Reporter{
		report:     report,
		outputPath: outputPath,
	}
}

// GenerateReport writes every report format into the output directory.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generateJSONReport(); err != nil {
		return err
	}
	if err := r.generatePredictionLog(); err != nil {
		return err
	}
	return ml.SaveFeatureImportance(filepath.Join(r.outputPath, ImportanceFile), r.report.Importance)
}

// generateSummary generates a human-readable summary
func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	rep := r.report
	fmt.Fprintf(file, "HOLDOUT EVALUATION SUMMARY\n")
	fmt.Fprintf(file, "==========================\n\n")
	fmt.Fprintf(file, "Generated: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Train rows: %d\n", rep.TrainRows)
	fmt.Fprintf(file, "Test rows: %d (%.0f%% held out, seed %d)\n", rep.TestRows, rep.TestFraction*100, rep.Seed)
	fmt.Fprintf(file, "Trees: %d, trained in %s\n\n", rep.Estimators, rep.TrainingDuration)

	fmt.Fprintf(file, "CLASSIFICATION METRICS\n")
	fmt.Fprintf(file, "----------------------\n")
	fmt.Fprintf(file, "Accuracy (p >= %.2f): %.2f%%\n", rep.Threshold, rep.Accuracy*100)
	fmt.Fprintf(file, "Base rate: %.2f%%\n", rep.BaseRate*100)
	fmt.Fprintf(file, "Brier score: %.4f\n", rep.Brier)
	fmt.Fprintf(file, "Log loss: %.4f\n", rep.LogLoss)
	fmt.Fprintf(file, "ROC AUC: %s\n\n", formatMaybe(rep.AUC, "%.4f"))

	fmt.Fprintf(file, "FEATURES\n")
	fmt.Fprintf(file, "--------\n")
	fmt.Fprintf(file, "Retained: %d\n", len(rep.Columns))
	if len(rep.Dropped) > 0 {
		fmt.Fprintf(file, "Dropped for missingness: %v\n", rep.Dropped)
	}
	for _, fs := range rep.Importance {
		fmt.Fprintf(file, "%2d. %-18s %.4f (median %g)\n", fs.Rank, fs.Name, fs.Importance, fs.Median)
	}

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

// generateJSONReport writes the full report as JSON. NaN metrics become null.
func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, JSONFile)

	out := struct {
		*Report
		Accuracy *float64 `json:"accuracy"`
		Brier    *float64 `json:"brier"`
		LogLoss  *float64 `json:"log_loss"`
		AUC      *float64 `json:"auc"`
	}{
		Report:   r.report,
		Accuracy: finite(r.report.Accuracy),
		Brier:    finite(r.report.Brier),
		LogLoss:  finite(r.report.LogLoss),
		AUC:      finite(r.report.AUC),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// generatePredictionLog generates a CSV of every held-out score
func (r *Reporter) generatePredictionLog() error {
	csvPath := filepath.Join(r.outputPath, PredictionsFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create prediction log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"row", "actual", "probability", "predicted"}); err != nil {
		return err
	}
	for _, p := range r.report.Predictions {
		predicted := "0"
		if p.Probability >= r.report.Threshold {
			predicted = "1"
		}
		record := []string{
			strconv.Itoa(p.Row),
			strconv.FormatFloat(p.Actual, 'f', 0, 64),
			strconv.FormatFloat(p.Probability, 'f', 6, 64),
			predicted,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	log.Info().Str("file", csvPath).Msg("Prediction log generated")
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatMaybe(v float64, format string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

// PrintSummary prints a summary to console
func (r *Reporter) PrintSummary() {
	rep := r.report
	fmt.Println("\n=== EVALUATION RESULTS ===")
	fmt.Printf("Train / Test Rows: %d / %d\n", rep.TrainRows, rep.TestRows)
	fmt.Printf("Accuracy: %.2f%% (base rate %.2f%%)\n", rep.Accuracy*100, rep.BaseRate*100)
	fmt.Printf("Brier Score: %.4f\n", rep.Brier)
	fmt.Printf("Log Loss: %.4f\n", rep.LogLoss)
	fmt.Printf("ROC AUC: %s\n", formatMaybe(rep.AUC, "%.4f"))
	fmt.Printf("Top Features: %s\n", strings.Join(ml.TopFeatures(rep.Importance, 5), ", "))
	fmt.Println("==========================")
}
