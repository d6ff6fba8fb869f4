package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ivy-predictor/internal/cfg"
	"ivy-predictor/internal/dataset"
	"ivy-predictor/internal/evaluation"
	"ivy-predictor/internal/features"
	"ivy-predictor/internal/ml"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		dataPath     = flag.String("data", "", "Path to the admissions CSV (overrides config)")
		outputPath   = flag.String("output", "evaluation", "Output directory for results")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		testFraction = flag.Float64("test-fraction", evaluation.DefaultTestFraction, "Share of each class held out")
		seed         = flag.Uint64("seed", 42, "Split and forest seed")
		threshold    = flag.Float64("threshold", 0.5, "Probability cut-off for accuracy")
		estimators   = flag.Int("trees", 0, "Number of trees (overrides config)")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *dataPath != "" {
		config.DatasetPath = *dataPath
	}
	if *estimators > 0 {
		config.NumEstimators = *estimators
	}

	fmt.Println("=== Evaluation Configuration ===")
	fmt.Printf("Dataset: %s\n", config.DatasetPath)
	fmt.Printf("Output Directory: %s\n", *outputPath)
	fmt.Printf("Test Fraction: %.2f\n", *testFraction)
	fmt.Printf("Seed: %d\n", *seed)
	fmt.Printf("Trees: %d\n", config.NumEstimators)
	fmt.Println("================================")

	table, err := dataset.LoadCSV(config.DatasetPath, dataset.Options{Delimiter: config.DatasetDelimiter})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}

	report, err := evaluation.Run(context.Background(), table, evaluation.Options{
		TestFraction: *testFraction,
		Seed:         *seed,
		Threshold:    *threshold,
		Fit: ml.FitOptions{
			Select: features.SelectOptions{
				Outcome:      config.OutcomeColumn,
				Threshold:    config.MissingnessThreshold,
				AllowReduced: config.AllowReducedFeatures,
			},
			Forest: ml.ForestConfig{
				NumEstimators:  config.NumEstimators,
				MaxDepth:       config.MaxDepth,
				MinSamplesLeaf: config.MinSamplesLeaf,
				MaxFeatures:    config.MaxFeatures,
				Workers:        config.TrainWorkers,
			},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	reporter := evaluation.NewReporter(report, *outputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Error().Err(err).Msg("Failed to generate reports")
	}

	reporter.PrintSummary()

	log.Info().
		Str("output", *outputPath).
		Msg("Evaluation completed successfully")
}
