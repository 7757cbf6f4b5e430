package listing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/check"
)

// Default key column names.
const (
	DefaultTimeColumn   = "totim"
	DefaultStepColumn   = "time_step"
	DefaultPeriodColumn = "stress_period"
)

// Columns names the key columns of the table.
// Empty fields fall back to the defaults.
type Columns struct {
	Time   string `yaml:"time,omitempty" json:"time,omitempty"`
	Step   string `yaml:"step,omitempty" json:"step,omitempty"`
	Period string `yaml:"period,omitempty" json:"period,omitempty"`

	// Whitespace splits rows on runs of blanks instead of commas.
	Whitespace bool `yaml:"whitespace,omitempty" json:"whitespace,omitempty"`
}

func (c Columns) withDefaults() Columns {
	if c.Time == "" {
		c.Time = DefaultTimeColumn
	}
	if c.Step == "" {
		c.Step = DefaultStepColumn
	}
	if c.Period == "" {
		c.Period = DefaultPeriodColumn
	}
	return c
}

// Row is one step of the aggregate budget.
type Row struct {
	Key    budget.StepKey
	Fields map[string]float64
}

// Get returns the value of a <TAG>_IN / <TAG>_OUT field.
func (r Row) Get(field string) float64 {
	return r.Fields[field]
}

// Totals returns the in/out pair of category.
func (r Row) Totals(category string) budget.Totals {
	return budget.Totals{
		In:  r.Fields[budget.InField(category)],
		Out: r.Fields[budget.OutField(category)],
	}
}

// Load reads the aggregate budget table at path.
//
// Every <TAG>_IN / <TAG>_OUT column for cats must be present in the header
// (matched case-insensitively). All fields start at zero, so an empty cell
// reads as an explicit zero. A missing file, a malformed value or a missing
// column is a *check.LoadError.
func Load(path string, cats budget.Categories, cols Columns) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &check.LoadError{Path: path, Message: "open aggregate budget", Err: err}
	}
	defer f.Close()
	return Parse(f, path, cats, cols)
}

// Parse reads an aggregate budget table from r. name is used in errors.
func Parse(r io.Reader, name string, cats budget.Categories, cols Columns) ([]Row, error) {
	cols = cols.withDefaults()
	records, err := readRecords(r, name, cols.Whitespace)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &check.LoadError{Path: name, Message: "empty table"}
	}

	hdr := newHeader(records[0].fields)
	timeIdx, ok := hdr.lookup(cols.Time)
	if !ok {
		return nil, &check.LoadError{Path: name, Line: records[0].line, Message: fmt.Sprintf("missing time column %q", cols.Time)}
	}
	stepIdx, hasStep := hdr.lookup(cols.Step)
	periodIdx, hasPeriod := hdr.lookup(cols.Period)

	fields := cats.FieldNames()
	fieldIdx := make([]int, len(fields))
	var missing []string
	for i, fname := range fields {
		idx, ok := hdr.lookup(fname)
		if !ok {
			missing = append(missing, fname)
			continue
		}
		fieldIdx[i] = idx
	}
	if len(missing) > 0 {
		return nil, &check.LoadError{
			Path:    name,
			Line:    records[0].line,
			Message: fmt.Sprintf("missing budget columns %s", strings.Join(missing, ", ")),
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec.fields) != len(hdr.names) {
			return nil, &check.LoadError{
				Path:    name,
				Line:    rec.line,
				Message: fmt.Sprintf("row has %d fields, header has %d", len(rec.fields), len(hdr.names)),
			}
		}

		row := Row{Fields: make(map[string]float64, len(fields))}
		for _, fname := range fields {
			row.Fields[fname] = 0
		}

		t, err := parseFloat(rec, timeIdx, name, cols.Time)
		if err != nil {
			return nil, err
		}
		row.Key.Time = t
		if hasStep {
			if row.Key.Step, err = parseInt(rec, stepIdx, name, cols.Step); err != nil {
				return nil, err
			}
		}
		if hasPeriod {
			if row.Key.Period, err = parseInt(rec, periodIdx, name, cols.Period); err != nil {
				return nil, err
			}
		}

		for i, fname := range fields {
			v, err := parseFloat(rec, fieldIdx[i], name, fname)
			if err != nil {
				return nil, err
			}
			if err := check.Finite(fname, len(rows)+1, v); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, rec.line, err)
			}
			row.Fields[fname] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type record struct {
	line   int
	fields []string
}

func readRecords(r io.Reader, name string, whitespace bool) ([]record, error) {
	if whitespace {
		return readWhitespace(r, name)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var out []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &check.LoadError{Path: name, Line: pe.Line, Message: "malformed row", Err: pe.Err}
			}
			return nil, &check.LoadError{Path: name, Message: "read table", Err: err}
		}
		line, _ := cr.FieldPos(0)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		out = append(out, record{line: line, fields: fields})
	}
}

func readWhitespace(r io.Reader, name string) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &check.LoadError{Path: name, Message: "read table", Err: err}
	}
	var out []record
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, record{line: i + 1, fields: strings.Fields(trimmed)})
	}
	return out, nil
}

type header struct {
	names []string
	index map[string]int
}

func newHeader(names []string) header {
	h := header{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		key := budget.FoldTag(strings.Trim(n, `"`))
		if _, dup := h.index[key]; !dup {
			h.index[key] = i
		}
	}
	return h
}

func (h header) lookup(name string) (int, bool) {
	i, ok := h.index[budget.FoldTag(name)]
	return i, ok
}

func parseFloat(rec record, idx int, name, column string) (float64, error) {
	s := rec.fields[idx]
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &check.LoadError{Path: name, Line: rec.line, Message: fmt.Sprintf("invalid number %q in column %s", s, column), Err: err}
	}
	return v, nil
}

func parseInt(rec record, idx int, name, column string) (int, error) {
	v, err := parseFloat(rec, idx, name, column)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, &check.LoadError{Path: name, Line: rec.line, Message: fmt.Sprintf("non-integer %v in column %s", v, column)}
	}
	return int(v), nil
}
