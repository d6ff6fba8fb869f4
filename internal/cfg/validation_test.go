package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		DatasetPath:          "collegedata_normalized.csv",
		DatasetDelimiter:     ',',
		OutcomeColumn:        "acceptStatus",
		CatalogSource:        "colleges.csv",
		CatalogTimeout:       5 * time.Second,
		NumEstimators:        50,
		MinSamplesLeaf:       1,
		MissingnessThreshold: 0.5,
		Port:                 5000,
		MetricsPort:          9090,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_InvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"empty dataset path", func(s *Settings) { s.DatasetPath = "" }, "dataset path"},
		{"empty outcome column", func(s *Settings) { s.OutcomeColumn = "" }, "outcome column"},
		{"empty catalog source", func(s *Settings) { s.CatalogSource = "" }, "catalog source"},
		{"quote delimiter", func(s *Settings) { s.DatasetDelimiter = '"' }, "delimiter"},
		{"catalog timeout too short", func(s *Settings) { s.CatalogTimeout = 10 * time.Millisecond }, "catalog timeout"},
		{"too many estimators", func(s *Settings) { s.NumEstimators = 100000 }, "estimators"},
		{"negative depth", func(s *Settings) { s.MaxDepth = -1 }, "max depth"},
		{"zero min samples leaf", func(s *Settings) { s.MinSamplesLeaf = 0 }, "min samples"},
		{"negative max features", func(s *Settings) { s.MaxFeatures = -2 }, "max features"},
		{"negative workers", func(s *Settings) { s.TrainWorkers = -1 }, "workers"},
		{"zero threshold", func(s *Settings) { s.MissingnessThreshold = 0 }, "missingness"},
		{"privileged port", func(s *Settings) { s.Port = 80 }, "port"},
		{"metrics port out of range", func(s *Settings) { s.MetricsPort = 70000 }, "metrics port"},
		{"unknown log level", func(s *Settings) { s.LogLevel = "trace" }, "log level"},
		{"unknown log format", func(s *Settings) { s.LogFormat = "xml" }, "log format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			tc.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected error to mention %q, got: %v", tc.wantMsg, err)
			}
		})
	}
}

func TestValidateSettings_Boundaries(t *testing.T) {
	settings := createValidSettings()
	settings.MissingnessThreshold = 1.0
	settings.MaxDepth = 200
	settings.NumEstimators = 1

	if err := validateSettings(settings); err != nil {
		t.Errorf("expected boundary values to be accepted, got: %v", err)
	}
}

func TestParseDelimiter(t *testing.T) {
	testCases := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{",", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"tab", '\t', false},
		{"", 0, true},
		{",,", 0, true},
	}

	for _, tc := range testCases {
		got, err := parseDelimiter(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseDelimiter(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parseDelimiter(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
