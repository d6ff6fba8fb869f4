package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"ivy-predictor/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Data directory path")
		limit    = flag.Int("limit", 20, "Number of recent predictions to show")
		since    = flag.Duration("since", 0, "Only show predictions newer than this (e.g. 24h)")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fmt.Printf("Inspecting data in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	training, ok, err := store.LatestTraining()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read training history")
	}
	if ok {
		fmt.Println("\nLatest training run:")
		fmt.Printf("  Trained: %s\n", training.Timestamp.Format(time.RFC3339))
		fmt.Printf("  Dataset: %s (%d rows, %.1f%% accepted)\n", training.DatasetPath, training.Rows, training.AcceptedFraction*100)
		fmt.Printf("  Trees: %d, seed %d, %.2fs\n", training.Estimators, training.Seed, training.DurationSeconds)
		fmt.Printf("  Features: %v\n", training.Features)
		if len(training.Dropped) > 0 {
			fmt.Printf("  Dropped: %v\n", training.Dropped)
		}
	}

	total, err := store.CountPredictions()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count predictions")
	}
	fmt.Printf("\nStored predictions: %d\n", total)

	var records []storage.PredictionRecord
	if *since > 0 {
		now := time.Now().UTC()
		records, err = store.PredictionsInRange(now.Add(-*since), now)
	} else {
		records, err = store.RecentPredictions(*limit)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch predictions")
	}

	for _, r := range records {
		fmt.Printf("%s  %s  prob=%.3f colleges=%d  %s\n",
			r.Timestamp.Format(time.RFC3339), r.ID, r.Probability, r.Colleges, formatVector(r.Vector))
	}
}

func formatVector(v map[string]float64) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, v[k])
	}
	return strings.Join(parts, " ")
}
