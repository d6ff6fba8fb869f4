package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivy-predictor/internal/catalog"
	"ivy-predictor/internal/cfg"
	"ivy-predictor/internal/common"
	"ivy-predictor/internal/dataset"
	"ivy-predictor/internal/features"
	"ivy-predictor/internal/metrics"
	"ivy-predictor/internal/ml"
	"ivy-predictor/internal/server"
	"ivy-predictor/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	// Training happens once, before the listener opens.
	pipeline := train(ctx, c, mw)

	colleges := loadCatalog(ctx, c)
	mw.CatalogSizeSet(float64(colleges.Len()))

	store := initializeStorage(c)
	var history server.History
	if store != nil {
		defer store.Close()
		recordTraining(store, c, pipeline)
		history = store
	}

	svc := ml.NewService(pipeline, colleges, mw)
	srv := server.New(svc, server.Options{Port: c.Port, History: history, Metrics: mw})

	startMetricsServer(ctx, c)

	go func() {
		log.Info().Int("port", c.Port).Int("colleges", colleges.Len()).Msg("prediction service listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel, srv)
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global logger.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// train loads the dataset and fits the classifier. Any failure is fatal.
func train(ctx context.Context, c cfg.Settings, mw *metrics.MetricsWrapper) *ml.Pipeline {
	table, err := dataset.LoadCSV(c.DatasetPath, dataset.Options{Delimiter: c.DatasetDelimiter})
	if err != nil {
		log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("dataset load failed")
	}

	pipeline, err := ml.Fit(ctx, table, ml.FitOptions{
		Select: features.SelectOptions{
			Outcome:      c.OutcomeColumn,
			Threshold:    c.MissingnessThreshold,
			AllowReduced: c.AllowReducedFeatures,
		},
		Forest: ml.ForestConfig{
			NumEstimators:  c.NumEstimators,
			MaxDepth:       c.MaxDepth,
			MinSamplesLeaf: c.MinSamplesLeaf,
			MaxFeatures:    c.MaxFeatures,
			Seed:           c.RandomSeed,
			Workers:        c.TrainWorkers,
		},
		Metrics: mw,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
	return pipeline
}

// loadCatalog reads the college catalog. An unreadable catalog is fatal.
func loadCatalog(ctx context.Context, c cfg.Settings) *catalog.Catalog {
	ctx, cancel := context.WithTimeout(ctx, c.CatalogTimeout)
	defer cancel()

	colleges, err := catalog.Load(ctx, c.CatalogSource, catalog.Options{Timeout: c.CatalogTimeout})
	if err != nil {
		log.Fatal().Err(err).Str("source", c.CatalogSource).Msg("catalog load failed")
	}
	if colleges.Len() == 0 {
		log.Warn().Str("source", c.CatalogSource).Msg("catalog is empty, predictions will return no colleges")
	}
	return colleges
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction history")
			return nil
		}
		return store
	}
	return nil
}

func recordTraining(store *storage.Store, c cfg.Settings, p *ml.Pipeline) {
	stats := p.Stats()
	_, err := store.StoreTraining(storage.TrainingRecord{
		Timestamp:        stats.TrainedAt,
		DatasetPath:      c.DatasetPath,
		Rows:             stats.Rows,
		Features:         p.Columns(),
		Dropped:          p.Dropped(),
		AcceptedFraction: stats.AcceptedFraction,
		Estimators:       p.Forest().NumTrees(),
		Seed:             p.Forest().Seed(),
		DurationSeconds:  stats.Duration.Seconds(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record training run")
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: common.ReadHeaderTimeout,
		ReadTimeout:       common.ReadTimeout,
		WriteTimeout:      common.WriteTimeout,
		IdleTimeout:       common.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), common.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("server stopped")
}
