// Package testutil builds synthetic simulator run directories for tests.
//
// A RunDir is a temporary directory holding the artifacts a simulator run
// would leave behind: a binary cell-by-cell budget file, an aggregate budget
// table and observation tables. Files are written with the same encoders
// the readers are tested against.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/roach88/reconcile/internal/cbc"
	"github.com/roach88/reconcile/internal/consolidation"
)

// RunDir is a temporary run directory.
type RunDir struct {
	Dir string
	t   testing.TB
}

// NewRunDir creates an empty run directory removed when the test ends.
func NewRunDir(t testing.TB) *RunDir {
	t.Helper()
	return &RunDir{Dir: t.TempDir(), t: t}
}

// Path returns the absolute path of name inside the run directory.
func (r *RunDir) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteFile writes content to name, creating parent directories.
func (r *RunDir) WriteFile(name, content string) string {
	r.t.Helper()
	path := r.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
	return path
}

// WriteCBC encodes records into a binary budget file.
func (r *RunDir) WriteCBC(name string, recs ...*cbc.Record) string {
	r.t.Helper()
	path := r.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		r.t.Fatal(err)
	}
	defer f.Close()

	w := cbc.NewWriter(f)
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			r.t.Fatalf("write %s: %v", rec.Text, err)
		}
	}
	if err := w.Flush(); err != nil {
		r.t.Fatal(err)
	}
	return path
}

// ArrayRecord builds a compact full-grid record for a single-layer,
// single-row grid with one value per column.
func ArrayRecord(step, period int, totim float64, text string, values ...float64) *cbc.Record {
	return &cbc.Record{
		Step:   step,
		Period: period,
		Text:   text,
		Dims:   [3]int{len(values), 1, 1},
		Method: cbc.MethodArray,
		Delt:   1,
		Pertim: totim,
		Totim:  totim,
		Array:  append([]float64(nil), values...),
	}
}

// ListRecord builds a list record. Each entry is (node, q).
func ListRecord(step, period int, totim float64, text string, ncells int, entries ...cbc.ListEntry) *cbc.Record {
	return &cbc.Record{
		Step:   step,
		Period: period,
		Text:   text,
		Dims:   [3]int{ncells, 1, 1},
		Method: cbc.MethodList,
		Delt:   1,
		Pertim: totim,
		Totim:  totim,
		Names:  [4]string{"MODEL", "MODEL", "MODEL", text},
		List:   entries,
	}
}

// Table renders a comma-delimited table with a header row.
func Table(columns []string, rows ...[]float64) string {
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// BudgetRun writes a three-step run of one category into r: a cell-by-cell
// file "<name>.cbc" over three cells and an aggregate table
// "<name>.bud.csv" reporting category_IN = [1, 2, 3] and zero outflow.
// The value of step k is split 1/2, 1/4, 1/4 over the three cells.
//
// A non-zero injected is added to category_OUT of step 2 in the aggregate
// table only.
func (r *RunDir) BudgetRun(name, category string, injected float64) {
	r.t.Helper()
	var recs []*cbc.Record
	var rows [][]float64
	for k := 1; k <= 3; k++ {
		v := float64(k)
		// Halves and quarters keep the per-cell sum exact.
		recs = append(recs, ArrayRecord(k, 1, v, category, v/2, v/4, v/4))
		out := 0.0
		if k == 2 {
			out = injected
		}
		rows = append(rows, []float64{v, float64(k), 1, v, out})
	}
	r.WriteCBC(name+".cbc", recs...)
	r.WriteFile(name+".bud.csv", Table(
		[]string{"totim", "time_step", "stress_period", category + "_IN", category + "_OUT"},
		rows...,
	))
}

// SublayerColumns returns "<prefix>01".."<prefix>NN".
func SublayerColumns(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return out
}

// InterbedRun writes an observation table "<name>.obs.csv" for a bed with
// initial porosity theta0 and thickness b0 under the given whole-bed
// compaction. Columns are time, TCOMP, THICK and THETA, plus DBCOMPnn,
// DBTHICKnn and DBPOROnn for nsub equal sublayers each carrying c/nsub.
// Every value follows the consolidation relation exactly.
func (r *RunDir) InterbedRun(name string, theta0, b0 float64, compaction []float64, nsub int) string {
	r.t.Helper()
	e0, err := consolidation.VoidRatioFromPorosity(theta0)
	if err != nil {
		r.t.Fatal(err)
	}
	bed := consolidation.Bed{VoidRatio: e0, Thickness: b0}
	whole, err := consolidation.Evaluate(bed, compaction)
	if err != nil {
		r.t.Fatal(err)
	}

	per := make([]float64, len(compaction))
	for i, c := range compaction {
		per[i] = c / float64(nsub)
	}
	var sub consolidation.Curve
	if nsub > 0 {
		if sub, err = consolidation.Evaluate(bed.Sublayer(nsub), per); err != nil {
			r.t.Fatal(err)
		}
	}

	columns := []string{"time", "TCOMP", "THICK", "THETA"}
	columns = append(columns, SublayerColumns("DBCOMP", nsub)...)
	columns = append(columns, SublayerColumns("DBTHICK", nsub)...)
	columns = append(columns, SublayerColumns("DBPORO", nsub)...)

	rows := make([][]float64, len(compaction))
	for i := range compaction {
		row := []float64{float64(i + 1), compaction[i], whole.Thickness[i], whole.Porosity[i]}
		for _, v := range [][]float64{per, sub.Thickness, sub.Porosity} {
			for k := 0; k < nsub; k++ {
				row = append(row, v[i])
			}
		}
		rows[i] = row
	}
	return r.WriteFile(name+".obs.csv", Table(columns, rows...))
}
