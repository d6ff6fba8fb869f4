package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"ivy-predictor/internal/features"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		outDir   = flag.String("out", ".", "Directory to write the dataset and catalog into")
		rows     = flag.Int("rows", 2000, "Number of applicant rows to generate")
		colleges = flag.Int("colleges", 8, "Number of catalog entries to generate")
		seed     = flag.Uint64("seed", 1, "Random seed")
		missing  = flag.Float64("missing", 0.1, "Share of missing cells in sparse columns")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	rng := rand.New(rand.NewPCG(*seed, 7))

	datasetPath := filepath.Join(*outDir, "collegedata_normalized.csv")
	if err := writeDataset(datasetPath, rng, *rows, *missing); err != nil {
		log.Fatal().Err(err).Msg("Failed to write dataset")
	}
	catalogPath := filepath.Join(*outDir, "colleges.csv")
	if err := writeCatalog(catalogPath, *colleges); err != nil {
		log.Fatal().Err(err).Msg("Failed to write catalog")
	}

	log.Info().
		Str("dataset", datasetPath).
		Str("catalog", catalogPath).
		Int("rows", *rows).
		Int("colleges", *colleges).
		Msg("Generated sample data")
}

// sparseColumns are left empty in a share of rows so imputation has work to do.
var sparseColumns = map[string]bool{
	"averageAP":  true,
	"SATsubject": true,
	"finAidPct":  true,
}

// binaryColumns hold 0/1 flags.
var binaryColumns = map[string]bool{
	"female":        true,
	"MinorityRace":  true,
	"international": true,
	"sports":        true,
	"earlyAppl":     true,
	"alumni":        true,
	"outofstate":    true,
	"public":        true,
}

func writeDataset(path string, rng *rand.Rand, rows int, missing float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append(append([]string(nil), features.PredictorColumns...), features.OutcomeColumn)
	if err := w.Write(header); err != nil {
		return err
	}

	values := make(map[string]float64, len(features.PredictorColumns))
	record := make([]string, len(header))
	for i := 0; i < rows; i++ {
		for _, name := range features.PredictorColumns {
			if binaryColumns[name] {
				values[name] = float64(rng.IntN(2))
				continue
			}
			values[name] = math.Round(rng.Float64()*1000) / 1000
		}

		// Stronger applicants and less selective schools admit more often.
		score := 2.5*values["GPA"] + 2*values["admissionstest"] + 0.8*values["AP"] +
			0.6*values["earlyAppl"] + 0.5*values["alumni"] - 2*(1-values["acceptrate"]) - 1.8
		accepted := rng.Float64() < 1/(1+math.Exp(-3*score))

		for j, name := range features.PredictorColumns {
			if sparseColumns[name] && rng.Float64() < missing {
				record[j] = ""
				continue
			}
			record[j] = strconv.FormatFloat(values[name], 'f', -1, 64)
		}
		record[len(record)-1] = "0"
		if accepted {
			record[len(record)-1] = "1"
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeCatalog(path string, n int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"collegeID", "name"}); err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		if err := w.Write([]string{fmt.Sprintf("C%03d", i), fmt.Sprintf("Sample College %d", i)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
