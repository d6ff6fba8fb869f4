package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"ivy-predictor/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	DatasetPath          string
	DatasetDelimiter     rune
	OutcomeColumn        string
	CatalogSource        string
	CatalogTimeout       time.Duration
	NumEstimators        int
	MaxDepth             int
	MinSamplesLeaf       int
	MaxFeatures          int
	MissingnessThreshold float64
	AllowReducedFeatures bool
	RandomSeed           uint64
	TrainWorkers         int
	Port                 int
	MetricsPort          int
	DataPath             string
	LogLevel             string
	LogFormat            string
}

type ConfigFile struct {
	Dataset struct {
		Path          string  `yaml:"path"`
		Delimiter     string  `yaml:"delimiter"`
		OutcomeColumn string  `yaml:"outcomeColumn"`
		Missingness   float64 `yaml:"missingnessThreshold"`
		AllowReduced  bool    `yaml:"allowReducedFeatures"`
	} `yaml:"dataset"`

	Catalog struct {
		Source  string `yaml:"source"`
		Timeout string `yaml:"timeout"`
	} `yaml:"catalog"`

	Model struct {
		NumEstimators  int    `yaml:"numEstimators"`
		MaxDepth       int    `yaml:"maxDepth"`
		MinSamplesLeaf int    `yaml:"minSamplesLeaf"`
		MaxFeatures    int    `yaml:"maxFeatures"`
		RandomSeed     uint64 `yaml:"randomSeed"`
		TrainWorkers   int    `yaml:"trainWorkers"`
	} `yaml:"model"`

	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"server"`

	System struct {
		DataPath  string `yaml:"dataPath"`
		LogLevel  string `yaml:"logLevel"`
		LogFormat string `yaml:"logFormat"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// A .env file is optional; variables already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	catalogTimeout, err := time.ParseDuration(config.Catalog.Timeout)
	if err != nil {
		catalogTimeout = common.DefaultCatalogTimeout
	}

	delimiter, err := parseDelimiter(getEnvOrDefault(common.EnvDatasetDelimiter,
		firstNonEmpty(config.Dataset.Delimiter, common.DefaultDatasetDelimiter)))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		DatasetPath:          getEnvOrDefault(common.EnvDatasetPath, firstNonEmpty(config.Dataset.Path, common.DefaultDatasetPath)),
		DatasetDelimiter:     delimiter,
		OutcomeColumn:        getEnvOrDefault(common.EnvOutcomeColumn, firstNonEmpty(config.Dataset.OutcomeColumn, common.DefaultOutcomeColumn)),
		CatalogSource:        getEnvOrDefault(common.EnvCatalogSource, firstNonEmpty(config.Catalog.Source, common.DefaultCatalogSource)),
		CatalogTimeout:       getDurationOrDefault(common.EnvCatalogTimeout, catalogTimeout),
		NumEstimators:        getIntFromEnvOrConfig(common.EnvNumEstimators, config.Model.NumEstimators, common.DefaultNumEstimators),
		MaxDepth:             getIntFromEnvOrConfig(common.EnvMaxDepth, config.Model.MaxDepth, 0),
		MinSamplesLeaf:       getIntFromEnvOrConfig(common.EnvMinSamplesLeaf, config.Model.MinSamplesLeaf, common.DefaultMinSamplesLeaf),
		MaxFeatures:          getIntFromEnvOrConfig(common.EnvMaxFeatures, config.Model.MaxFeatures, 0),
		MissingnessThreshold: getFloatFromEnvOrConfig(common.EnvMissingnessThreshold, config.Dataset.Missingness, common.DefaultMissingnessThreshold),
		AllowReducedFeatures: getBoolFromEnvOrConfig(common.EnvAllowReduced, config.Dataset.AllowReduced),
		RandomSeed:           getUintFromEnvOrConfig(common.EnvRandomSeed, config.Model.RandomSeed),
		TrainWorkers:         getIntFromEnvOrConfig(common.EnvTrainWorkers, config.Model.TrainWorkers, 0),
		Port:                 getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		MetricsPort:          getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		DataPath:             getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		LogLevel:             getEnvOrDefault(common.EnvLogLevel, firstNonEmpty(config.System.LogLevel, common.DefaultLogLevel)),
		LogFormat:            getEnvOrDefault(common.EnvLogFormat, firstNonEmpty(config.System.LogFormat, common.DefaultLogFormat)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	delimiter, err := parseDelimiter(getEnvOrDefault(common.EnvDatasetDelimiter, common.DefaultDatasetDelimiter))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		DatasetPath:          getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		DatasetDelimiter:     delimiter,
		OutcomeColumn:        getEnvOrDefault(common.EnvOutcomeColumn, common.DefaultOutcomeColumn),
		CatalogSource:        getEnvOrDefault(common.EnvCatalogSource, common.DefaultCatalogSource),
		CatalogTimeout:       getDurationOrDefault(common.EnvCatalogTimeout, common.DefaultCatalogTimeout),
		NumEstimators:        getIntOrDefault(common.EnvNumEstimators, common.DefaultNumEstimators),
		MaxDepth:             getIntOrDefault(common.EnvMaxDepth, 0),
		MinSamplesLeaf:       getIntOrDefault(common.EnvMinSamplesLeaf, common.DefaultMinSamplesLeaf),
		MaxFeatures:          getIntOrDefault(common.EnvMaxFeatures, 0),
		MissingnessThreshold: getFloatOrDefault(common.EnvMissingnessThreshold, common.DefaultMissingnessThreshold),
		AllowReducedFeatures: getBoolOrDefault(common.EnvAllowReduced, false),
		RandomSeed:           getUintOrDefault(common.EnvRandomSeed, 0),
		TrainWorkers:         getIntOrDefault(common.EnvTrainWorkers, 0),
		Port:                 getIntOrDefault(common.EnvPort, common.DefaultPort),
		MetricsPort:          getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DataPath:             os.Getenv(common.EnvDataPath), // optional
		LogLevel:             getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:            getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// IsRemoteCatalog reports whether the catalog is fetched over HTTP.
func (s *Settings) IsRemoteCatalog() bool {
	return strings.HasPrefix(s.CatalogSource, "http://") || strings.HasPrefix(s.CatalogSource, "https://")
}

func parseDelimiter(v string) (rune, error) {
	if v == `\t` || v == "tab" {
		return '\t', nil
	}
	runes := []rune(v)
	if len(runes) != 1 {
		return 0, fmt.Errorf("dataset delimiter must be a single character, got %q", v)
	}
	return runes[0], nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUintOrDefault(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		return getIntOrDefault(key, configValue)
	}
	return getIntOrDefault(key, defaultValue)
}

func getUintFromEnvOrConfig(key string, configValue uint64) uint64 {
	return getUintOrDefault(key, configValue)
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if configValue != 0 {
		return getFloatOrDefault(key, configValue)
	}
	return getFloatOrDefault(key, defaultValue)
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	return getBoolOrDefault(key, configValue)
}

// validateSettings performs range validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}
	if settings.OutcomeColumn == "" {
		return fmt.Errorf("outcome column cannot be empty")
	}
	if settings.CatalogSource == "" {
		return fmt.Errorf("catalog source cannot be empty")
	}
	if settings.DatasetDelimiter == '"' || settings.DatasetDelimiter == '\n' || settings.DatasetDelimiter == '\r' {
		return fmt.Errorf("invalid dataset delimiter %q", settings.DatasetDelimiter)
	}

	if settings.CatalogTimeout < time.Second || settings.CatalogTimeout > 5*time.Minute {
		return fmt.Errorf("catalog timeout must be between 1s and 5m, got %v", settings.CatalogTimeout)
	}

	if settings.NumEstimators < 1 || settings.NumEstimators > common.MaxNumEstimators {
		return fmt.Errorf("number of estimators must be between 1 and %d, got %d", common.MaxNumEstimators, settings.NumEstimators)
	}
	if settings.MaxDepth < 0 || settings.MaxDepth > common.MaxTreeDepth {
		return fmt.Errorf("max depth must be between 0 (unlimited) and %d, got %d", common.MaxTreeDepth, settings.MaxDepth)
	}
	if settings.MinSamplesLeaf < 1 || settings.MinSamplesLeaf > common.MaxMinSamplesLeaf {
		return fmt.Errorf("min samples per leaf must be between 1 and %d, got %d", common.MaxMinSamplesLeaf, settings.MinSamplesLeaf)
	}
	if settings.MaxFeatures < 0 {
		return fmt.Errorf("max features cannot be negative, got %d", settings.MaxFeatures)
	}
	if settings.TrainWorkers < 0 {
		return fmt.Errorf("train workers cannot be negative, got %d", settings.TrainWorkers)
	}

	if settings.MissingnessThreshold <= 0 || settings.MissingnessThreshold > 1 {
		return fmt.Errorf("missingness threshold must be in (0, 1], got %f", settings.MissingnessThreshold)
	}

	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.Port == settings.MetricsPort {
		return fmt.Errorf("port and metrics port must differ, both are %d", settings.Port)
	}

	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	return nil
}
