package reconcile

import (
	"fmt"
	"math"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/check"
	"github.com/roach88/reconcile/internal/listing"
)

// CheckName labels budget comparisons in errors and reports.
const CheckName = "total-budget"

// Row is one step of a comparison. Reference, Fine and Diff are indexed
// like Result.Columns.
type Row struct {
	Key       budget.StepKey
	Reference []float64
	Fine      []float64
	Diff      []float64
}

// Result is the outcome of one budget comparison.
type Result struct {
	// Columns are the <TAG>_IN / <TAG>_OUT names, category-major.
	Columns []string

	Rows []Row

	// MaxAbs is max |Diff| over all rows and columns.
	MaxAbs    float64
	Tolerance float64
	Pass      bool

	// Step (1-based row) and Column locate MaxAbs. Step is 0 when there
	// are no rows.
	Step   int
	Column string
}

// Compare reconciles cell-by-cell totals against the aggregate budget.
//
// The two series are aligned by position: they must have the same length,
// and row t of one is compared with row t of the other. A length mismatch
// is a StructuralError and no Result is returned. Differences are
// reference minus fine.
//
// A tolerance failure still returns the full Result; call Result.Err for
// the ToleranceExceeded error.
func Compare(fine []budget.StepTotals, ref []listing.Row, cats budget.Categories, tol float64) (*Result, error) {
	if err := check.ValidateTolerance(tol); err != nil {
		return nil, err
	}
	if len(fine) != len(ref) {
		return nil, check.Structural("", "budget sources disagree in step count: cell-by-cell has %d, aggregate has %d", len(fine), len(ref))
	}
	if cats.Len() == 0 {
		return nil, check.Structural("", "no budget categories to compare")
	}

	res := &Result{
		Columns:   cats.FieldNames(),
		Rows:      make([]Row, len(fine)),
		Tolerance: tol,
	}

	for t := range fine {
		row := Row{
			Key:       fine[t].Key,
			Reference: make([]float64, 0, len(res.Columns)),
			Fine:      make([]float64, 0, len(res.Columns)),
		}
		for _, name := range cats.Names() {
			f := fine[t].Get(name)
			r := ref[t].Totals(name)
			row.Reference = append(row.Reference, r.In, r.Out)
			row.Fine = append(row.Fine, f.In, f.Out)
		}
		row.Diff = make([]float64, len(res.Columns))
		for c := range row.Diff {
			row.Diff[c] = row.Reference[c] - row.Fine[c]
		}

		if m, at := check.MaxAbs(row.Diff); at >= 0 && res.worse(m) {
			res.MaxAbs, res.Step, res.Column = m, t+1, res.Columns[at]
		}
		res.Rows[t] = row
	}

	res.Pass = check.Within(res.MaxAbs, tol)
	return res, nil
}

// worse reports whether m replaces the current maximum. The first step
// always does; a NaN is never replaced.
func (r *Result) worse(m float64) bool {
	if r.Step == 0 {
		return true
	}
	if math.IsNaN(r.MaxAbs) {
		return false
	}
	return math.IsNaN(m) || m > r.MaxAbs
}

// Err returns a *check.ToleranceExceeded when the comparison failed.
func (r *Result) Err() error {
	if r.Pass {
		return nil
	}
	return &check.ToleranceExceeded{
		Check:     CheckName,
		Quantity:  r.Column,
		Step:      r.Step,
		Delta:     r.MaxAbs,
		Tolerance: r.Tolerance,
	}
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	msg := fmt.Sprintf("maximum absolute %s difference (%g)", CheckName, r.MaxAbs)
	if r.Pass {
		return msg
	}
	return fmt.Sprintf("%s exceeds %g", msg, r.Tolerance)
}
