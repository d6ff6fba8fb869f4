// Package dataset loads the historical admissions table used to train the
// admission classifier. Cells are parsed into float64 values with NaN marking
// a missing value; no other transformation is applied.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable is returned when the dataset cannot be read or holds no rows.
var ErrUnavailable = errors.New("dataset unavailable")

// missingTokens are cell values treated as absent.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// Options configures how a delimited file is parsed.
type Options struct {
	Delimiter rune
}

// Column holds the parsed cells of one named column.
type Column struct {
	Name    string
	Values  []float64 // NaN where the cell is missing or non-numeric
	Missing []bool
	Numeric bool // false once any present cell failed to parse
}

// Table is an in-memory, column-oriented view of the raw dataset.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// LoadCSV reads a delimited file with a header row.
func LoadCSV(path string, opts Options) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	defer file.Close()

	t, err := Read(file, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", path).
		Int("rows", t.Rows()).
		Int("columns", len(t.columns)).
		Msg("dataset loaded")

	return t, nil
}

// Read parses a delimited stream with a header row into a Table.
func Read(r io.Reader, opts Options) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrUnavailable, err)
	}

	t := &Table{
		columns: make([]*Column, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrUnavailable, name)
		}
		t.index[name] = i
		t.columns[i] = &Column{Name: name, Numeric: true}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for i, raw := range record {
			t.columns[i].append(raw)
		}
		t.rows++
	}

	if t.rows == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnavailable)
	}

	return t, nil
}

func (c *Column) append(raw string) {
	raw = strings.TrimSpace(raw)
	if _, ok := missingTokens[raw]; ok {
		c.Values = append(c.Values, math.NaN())
		c.Missing = append(c.Missing, true)
		return
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		c.Numeric = false
		v = math.NaN()
	}
	c.Values = append(c.Values, v)
	c.Missing = append(c.Missing, false)
}

// NewTable builds a Table from in-memory columns. Every slice must have the
// same length; NaN marks a missing cell.
func NewTable(names []string, columns [][]float64) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(columns))
	}
	t := &Table{index: make(map[string]int, len(names))}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if i > 0 && len(columns[i]) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(columns[i]), t.rows)
		}
		t.rows = len(columns[i])

		col := &Column{Name: name, Numeric: true, Values: make([]float64, len(columns[i])), Missing: make([]bool, len(columns[i]))}
		for j, v := range columns[i] {
			col.Values[j] = v
			col.Missing[j] = math.IsNaN(v)
		}
		t.index[name] = i
		t.columns = append(t.columns, col)
	}
	if t.rows == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnavailable)
	}
	return t, nil
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	return t.rows
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or false if it is absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// MissingCount returns the number of missing cells in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Subset returns a new table holding the given rows, in the given order.
func (t *Table) Subset(rows []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnavailable)
	}
	out := &Table{
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.index)),
		rows:    len(rows),
	}
	for name, i := range t.index {
		out.index[name] = i
	}
	for i, c := range t.columns {
		nc := &Column{
			Name:    c.Name,
			Numeric: c.Numeric,
			Values:  make([]float64, len(rows)),
			Missing: make([]bool, len(rows)),
		}
		for j, r := range rows {
			if r < 0 || r >= t.rows {
				return nil, fmt.Errorf("row %d out of range [0,%d)", r, t.rows)
			}
			nc.Values[j] = c.Values[r]
			nc.Missing[j] = c.Missing[r]
		}
		out.columns[i] = nc
	}
	return out, nil
}
