package common

import "time"

// Environment variable keys
const (
	EnvConfigFile           = "CONFIG_FILE"
	EnvDatasetPath          = "DATASET_PATH"
	EnvDatasetDelimiter     = "DATASET_DELIMITER"
	EnvOutcomeColumn        = "OUTCOME_COLUMN"
	EnvCatalogSource        = "CATALOG_SOURCE"
	EnvCatalogTimeout       = "CATALOG_TIMEOUT"
	EnvNumEstimators        = "NUM_ESTIMATORS"
	EnvMaxDepth             = "MAX_DEPTH"
	EnvMinSamplesLeaf       = "MIN_SAMPLES_LEAF"
	EnvMaxFeatures          = "MAX_FEATURES"
	EnvMissingnessThreshold = "MISSINGNESS_THRESHOLD"
	EnvAllowReduced         = "ALLOW_REDUCED_FEATURES"
	EnvRandomSeed           = "RANDOM_SEED"
	EnvTrainWorkers         = "TRAIN_WORKERS"
	EnvPort                 = "PORT"
	EnvMetricsPort          = "METRICS_PORT"
	EnvDataPath             = "DATA_PATH"
	EnvLogLevel             = "LOG_LEVEL"
	EnvLogFormat            = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultDatasetPath          = "collegedata_normalized.csv"
	DefaultDatasetDelimiter     = ","
	DefaultOutcomeColumn        = "acceptStatus"
	DefaultCatalogSource        = "colleges.csv"
	DefaultCatalogTimeout       = 5 * time.Second
	DefaultNumEstimators        = 50
	DefaultMinSamplesLeaf       = 1
	DefaultMissingnessThreshold = 0.5
	DefaultPort                 = 5000
	DefaultMetricsPort          = 9090
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
)

// Validation constants
const (
	MaxNumEstimators  = 5000
	MaxTreeDepth      = 200
	MaxMinSamplesLeaf = 10000
	MinPort           = 1024
	MaxPort           = 65535
)

// Server timeouts
const (
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 30 * time.Second
	IdleTimeout       = 60 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// WelcomeMessage is the body served on GET /.
const WelcomeMessage = "Welcome to the Team Ivy Web Service"

// Prediction history paging
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)
