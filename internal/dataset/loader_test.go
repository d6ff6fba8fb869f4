package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_ParsesCellsAndMissingTokens(t *testing.T) {
	input := "GPA,acceptStatus,collegeID\n" +
		"3.9,1,harvard\n" +
		",0,yale\n" +
		"NA,,brown\n" +
		"3.1,1,NaN\n"

	table, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, table.Rows())
	assert.Equal(t, []string{"GPA", "acceptStatus", "collegeID"}, table.Columns())

	gpa, ok := table.Column("GPA")
	require.True(t, ok)
	assert.True(t, gpa.Numeric)
	assert.Equal(t, 3.9, gpa.Values[0])
	assert.True(t, math.IsNaN(gpa.Values[1]))
	assert.Equal(t, []bool{false, true, true, false}, gpa.Missing)
	assert.Equal(t, 2, gpa.MissingCount())

	outcome, ok := table.Column("acceptStatus")
	require.True(t, ok)
	assert.Equal(t, 1, outcome.MissingCount())

	ids, ok := table.Column("collegeID")
	require.True(t, ok)
	assert.False(t, ids.Numeric, "text column should be flagged non-numeric")
	assert.Equal(t, 1, ids.MissingCount())
}

func TestRead_CustomDelimiter(t *testing.T) {
	input := "GPA;acceptStatus\n3.5;1\n2.9;0\n"

	table, err := Read(strings.NewReader(input), Options{Delimiter: ';'})
	require.NoError(t, err)

	col, ok := table.Column("acceptStatus")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0}, col.Values)
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"header only", "GPA,acceptStatus\n"},
		{"duplicate header", "GPA,GPA\n1,2\n"},
		{"ragged row", "GPA,acceptStatus\n3.0,1\n3.2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input), Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable), "expected ErrUnavailable, got %v", err)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collegedata_normalized.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffGPA,acceptStatus\n3.5,1\n"), 0o600))

	table, err := LoadCSV(path, Options{Delimiter: ','})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Rows())

	_, ok := table.Column("GPA")
	assert.True(t, ok, "byte order mark should be stripped from the first header")
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewTable(t *testing.T) {
	table, err := NewTable([]string{"a", "b"}, [][]float64{{1, math.NaN()}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())

	a, _ := table.Column("a")
	assert.Equal(t, []bool{false, true}, a.Missing)

	_, err = NewTable([]string{"a", "b"}, [][]float64{{1, 2}, {1}})
	assert.Error(t, err)

	_, err = NewTable([]string{"a"}, [][]float64{{}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTable_Subset(t *testing.T) {
	table, err := NewTable([]string{"a", "b"}, [][]float64{{1, 2, 3, 4}, {10, math.NaN(), 30, 40}})
	require.NoError(t, err)

	sub, err := table.Subset([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, []string{"a", "b"}, sub.Columns())

	b, ok := sub.Column("b")
	require.True(t, ok)
	assert.Equal(t, 40.0, b.Values[0])
	assert.True(t, b.Missing[1])

	_, err = table.Subset(nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = table.Subset([]int{9})
	assert.Error(t, err)
}
