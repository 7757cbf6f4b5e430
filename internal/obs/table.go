// Package obs loads observation time-series tables: comma-delimited text
// with a header row naming each column (time first, then one column per
// observation).
package obs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/reconcile/internal/check"
)

// Table is a fully loaded observation table.
type Table struct {
	Path  string
	Names []string

	columns [][]float64
	index   map[string]int
}

// Load reads the table at path. A missing file or unparsable value is a
// *check.LoadError. Empty cells are NaN so downstream checks reject them.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &check.LoadError{Path: path, Message: "could not load observations", Err: err}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a table from r. name is used in errors.
func Parse(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &check.LoadError{Path: name, Message: "empty table"}
	}
	if err != nil {
		return nil, wrapCSV(name, err)
	}

	t := &Table{
		Path:    name,
		Names:   make([]string, len(hdr)),
		columns: make([][]float64, len(hdr)),
		index:   make(map[string]int, len(hdr)),
	}
	for i, h := range hdr {
		n := strings.TrimSpace(h)
		t.Names[i] = n
		key := foldName(n)
		if _, dup := t.index[key]; dup {
			return nil, &check.LoadError{Path: name, Line: 1, Message: fmt.Sprintf("duplicate column %q", n)}
		}
		t.index[key] = i
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSV(name, err)
		}
		line, _ := cr.FieldPos(0)
		for i, s := range fields {
			s = strings.TrimSpace(s)
			v := math.NaN()
			if s != "" {
				v, err = strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, &check.LoadError{Path: name, Line: line, Message: fmt.Sprintf("invalid number %q in column %s", s, t.Names[i]), Err: err}
				}
			}
			t.columns[i] = append(t.columns[i], v)
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0])
}

// Has reports whether the table has a column called name (case-insensitive).
func (t *Table) Has(name string) bool {
	_, ok := t.index[foldName(name)]
	return ok
}

// Column returns a copy of the named column. A missing column is a
// StructuralError.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[foldName(name)]
	if !ok {
		return nil, check.Structural(t.Path, "observation column %q not found", name)
	}
	out := make([]float64, len(t.columns[i]))
	copy(out, t.columns[i])
	return out, nil
}

// Time returns the "time" column, or "totim" when there is none.
func (t *Table) Time() ([]float64, error) {
	for _, name := range []string{"time", "totim"} {
		if t.Has(name) {
			return t.Column(name)
		}
	}
	return nil, check.Structural(t.Path, "observation table has no time column")
}

func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func wrapCSV(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &check.LoadError{Path: name, Line: pe.Line, Message: "malformed row", Err: pe.Err}
	}
	return &check.LoadError{Path: name, Message: "read table", Err: err}
}
