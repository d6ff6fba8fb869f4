package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DatasetPath != "collegedata_normalized.csv" {
					t.Errorf("expected default DatasetPath, got %s", settings.DatasetPath)
				}
				if settings.OutcomeColumn != "acceptStatus" {
					t.Errorf("expected default OutcomeColumn acceptStatus, got %s", settings.OutcomeColumn)
				}
				if settings.NumEstimators != 50 {
					t.Errorf("expected default NumEstimators 50, got %d", settings.NumEstimators)
				}
				if settings.MissingnessThreshold != 0.5 {
					t.Errorf("expected default MissingnessThreshold 0.5, got %f", settings.MissingnessThreshold)
				}
				if settings.DatasetDelimiter != ',' {
					t.Errorf("expected default delimiter ',', got %q", settings.DatasetDelimiter)
				}
				if settings.Port != 5000 {
					t.Errorf("expected default Port 5000, got %d", settings.Port)
				}
				if settings.CatalogTimeout != 5*time.Second {
					t.Errorf("expected default CatalogTimeout 5s, got %v", settings.CatalogTimeout)
				}
				if settings.AllowReducedFeatures {
					t.Error("expected AllowReducedFeatures to default to false")
				}
				if settings.DataPath != "" {
					t.Errorf("expected DataPath to be empty by default, got %s", settings.DataPath)
				}
			},
		},
		{
			name: "custom model and dataset settings",
			envVars: map[string]string{
				"DATASET_PATH":           "/data/admissions.tsv",
				"DATASET_DELIMITER":      `\t`,
				"NUM_ESTIMATORS":         "200",
				"MAX_DEPTH":              "12",
				"MIN_SAMPLES_LEAF":       "3",
				"MISSINGNESS_THRESHOLD":  "0.3",
				"ALLOW_REDUCED_FEATURES": "true",
				"RANDOM_SEED":            "42",
				"CATALOG_SOURCE":         "https://catalog.example.com/colleges",
				"PORT":                   "8080",
				"LOG_FORMAT":             "console",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DatasetPath != "/data/admissions.tsv" {
					t.Errorf("expected DatasetPath override, got %s", settings.DatasetPath)
				}
				if settings.DatasetDelimiter != '\t' {
					t.Errorf("expected tab delimiter, got %q", settings.DatasetDelimiter)
				}
				if settings.NumEstimators != 200 {
					t.Errorf("expected NumEstimators 200, got %d", settings.NumEstimators)
				}
				if settings.MaxDepth != 12 {
					t.Errorf("expected MaxDepth 12, got %d", settings.MaxDepth)
				}
				if settings.MinSamplesLeaf != 3 {
					t.Errorf("expected MinSamplesLeaf 3, got %d", settings.MinSamplesLeaf)
				}
				if settings.MissingnessThreshold != 0.3 {
					t.Errorf("expected MissingnessThreshold 0.3, got %f", settings.MissingnessThreshold)
				}
				if !settings.AllowReducedFeatures {
					t.Error("expected AllowReducedFeatures to be true")
				}
				if settings.RandomSeed != 42 {
					t.Errorf("expected RandomSeed 42, got %d", settings.RandomSeed)
				}
				if !settings.IsRemoteCatalog() {
					t.Error("expected https catalog source to be remote")
				}
				if settings.Port != 8080 {
					t.Errorf("expected Port 8080, got %d", settings.Port)
				}
			},
		},
		{
			name: "zero estimators rejected",
			envVars: map[string]string{
				"NUM_ESTIMATORS": "0",
			},
			wantErr: true,
		},
		{
			name: "multi character delimiter rejected",
			envVars: map[string]string{
				"DATASET_DELIMITER": ";;",
			},
			wantErr: true,
		},
		{
			name: "same port for api and metrics rejected",
			envVars: map[string]string{
				"PORT":         "9090",
				"METRICS_PORT": "9090",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
dataset:
  path: "/srv/ivy/collegedata.csv"
  delimiter: ";"
  outcomeColumn: "admitted"
  missingnessThreshold: 0.4
  allowReducedFeatures: true

catalog:
  source: "/srv/ivy/colleges.yaml"
  timeout: "10s"

model:
  numEstimators: 120
  maxDepth: 20
  minSamplesLeaf: 2
  randomSeed: 7
  trainWorkers: 4

server:
  port: 5050
  metricsPort: 9191

system:
  dataPath: "/srv/ivy/history"
  logLevel: "debug"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DatasetPath != "/srv/ivy/collegedata.csv" {
					t.Errorf("expected DatasetPath from YAML, got %s", settings.DatasetPath)
				}
				if settings.DatasetDelimiter != ';' {
					t.Errorf("expected ';' delimiter, got %q", settings.DatasetDelimiter)
				}
				if settings.OutcomeColumn != "admitted" {
					t.Errorf("expected OutcomeColumn 'admitted', got %s", settings.OutcomeColumn)
				}
				if settings.MissingnessThreshold != 0.4 {
					t.Errorf("expected MissingnessThreshold 0.4, got %f", settings.MissingnessThreshold)
				}
				if !settings.AllowReducedFeatures {
					t.Error("expected AllowReducedFeatures true")
				}
				if settings.CatalogTimeout != 10*time.Second {
					t.Errorf("expected CatalogTimeout 10s, got %v", settings.CatalogTimeout)
				}
				if settings.NumEstimators != 120 {
					t.Errorf("expected NumEstimators 120, got %d", settings.NumEstimators)
				}
				if settings.RandomSeed != 7 {
					t.Errorf("expected RandomSeed 7, got %d", settings.RandomSeed)
				}
				if settings.TrainWorkers != 4 {
					t.Errorf("expected TrainWorkers 4, got %d", settings.TrainWorkers)
				}
				if settings.Port != 5050 || settings.MetricsPort != 9191 {
					t.Errorf("expected ports 5050/9191, got %d/%d", settings.Port, settings.MetricsPort)
				}
				if settings.DataPath != "/srv/ivy/history" {
					t.Errorf("expected DataPath from YAML, got %s", settings.DataPath)
				}
				if settings.LogLevel != "debug" {
					t.Errorf("expected LogLevel debug, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
dataset:
  path: "/srv/ivy/collegedata.csv"
model:
  numEstimators: 120
`,
			envOverrides: map[string]string{
				"NUM_ESTIMATORS": "75",
				"DATASET_PATH":   "/tmp/override.csv",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.NumEstimators != 75 {
					t.Errorf("expected env override NumEstimators 75, got %d", settings.NumEstimators)
				}
				if settings.DatasetPath != "/tmp/override.csv" {
					t.Errorf("expected env override DatasetPath, got %s", settings.DatasetPath)
				}
				if settings.CatalogSource != "colleges.csv" {
					t.Errorf("expected default CatalogSource, got %s", settings.CatalogSource)
				}
			},
		},
		{
			name: "YAML with out of range threshold",
			yamlContent: `
dataset:
  missingnessThreshold: 1.5
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("NUM_ESTIMATORS", "10")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.NumEstimators != 10 {
			t.Errorf("expected NumEstimators 10, got %d", settings.NumEstimators)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("model:\n  numEstimators: 33\n"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.NumEstimators != 33 {
			t.Errorf("expected NumEstimators 33, got %d", settings.NumEstimators)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "DATASET_PATH", "DATASET_DELIMITER", "OUTCOME_COLUMN", "CATALOG_SOURCE",
		"CATALOG_TIMEOUT", "NUM_ESTIMATORS", "MAX_DEPTH", "MIN_SAMPLES_LEAF", "MAX_FEATURES",
		"MISSINGNESS_THRESHOLD", "ALLOW_REDUCED_FEATURES", "RANDOM_SEED", "TRAIN_WORKERS",
		"PORT", "METRICS_PORT", "DATA_PATH", "LOG_LEVEL", "LOG_FORMAT",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
