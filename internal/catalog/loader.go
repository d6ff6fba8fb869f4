package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	idColumn   = "collegeID"
	nameColumn = "name"
)

// Options configures Load.
type Options struct {
	Timeout   time.Duration // HTTP sources only
	Delimiter rune          // CSV sources only, defaults to ','
}

// document is the wrapped form accepted from JSON, YAML and HTTP sources.
type document struct {
	Colleges []Entry `json:"colleges" yaml:"colleges"`
}

// Load reads a catalog from source. http(s) URLs are fetched; files are
// parsed by extension (.json, .yaml, .yml), anything else as CSV.
func Load(ctx context.Context, source string, opts Options) (*Catalog, error) {
	var (
		entries []Entry
		err     error
	)
	if IsRemote(source) {
		entries, err = NewClient(opts.Timeout).Fetch(ctx, source)
	} else {
		entries, err = loadFile(source, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, source, err)
	}

	c, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, source, err)
	}

	log.Info().
		Str("source", source).
		Int("colleges", c.Len()).
		Msg("College catalog loaded")

	return c, nil
}

// IsRemote reports whether source is an http or https URL.
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func loadFile(path string, opts Options) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseCSV(bytes.NewReader(data), opts.Delimiter)
	}
}

// parseJSON accepts either a bare array of entries or {"colleges": [...]}.
func parseJSON(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty catalog document")
	}
	if trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
		return entries, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return doc.Colleges, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return doc.Colleges, nil
}

// parseCSV reads a header row with a collegeID column. A name column is
// optional; every other column lands in Metadata.
func parseCSV(r io.Reader, delimiter rune) ([]Entry, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		header[i] = name
		colIndex[name] = i
	}
	idIdx, ok := colIndex[idColumn]
	if !ok {
		return nil, fmt.Errorf("CSV header has no %s column", idColumn)
	}
	nameIdx, hasName := colIndex[nameColumn]

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		e := Entry{ID: record[idIdx]}
		if hasName {
			e.Name = strings.TrimSpace(record[nameIdx])
		}
		for i, v := range record {
			if i == idIdx || (hasName && i == nameIdx) {
				continue
			}
			if e.Metadata == nil {
				e.Metadata = make(map[string]string)
			}
			e.Metadata[header[i]] = v
		}
		entries = append(entries, e)
	}
	return entries, nil
}
