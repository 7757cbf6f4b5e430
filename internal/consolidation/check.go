package consolidation

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/reconcile/internal/check"
)

// Reported quantities.
const (
	QuantityThickness = "THICK"
	QuantityPorosity  = "THETA"
)

// Series is a simulated interbed time series. Time may be nil, in which
// case steps are numbered from 1. Thickness and Porosity may be nil when a
// check does not need them.
type Series struct {
	Time       []float64
	Compaction []float64
	Thickness  []float64
	Porosity   []float64
}

// Len returns the number of steps.
func (s Series) Len() int {
	return len(s.Compaction)
}

// validate checks that every present column has one value per step.
func (s Series) validate(name string, needCompaction, needState bool) error {
	n := -1
	for _, col := range []struct {
		label  string
		values []float64
		need   bool
	}{
		{"time", s.Time, false},
		{"compaction", s.Compaction, needCompaction},
		{"thickness", s.Thickness, needState},
		{"porosity", s.Porosity, needState},
	} {
		if col.values == nil {
			if col.need {
				return check.Structural("", "%s: %s series is required", name, col.label)
			}
			continue
		}
		if n < 0 {
			n = len(col.values)
		} else if len(col.values) != n {
			return check.Structural("", "%s: %s has %d steps, expected %d", name, col.label, len(col.values), n)
		}
	}
	return nil
}

// steps returns the time axis, numbering steps from 1 when Time is nil.
func (s Series) steps(n int) []float64 {
	if s.Time != nil {
		return s.Time
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// Comparison is the outcome of comparing one simulated quantity with an
// independently derived one.
type Comparison struct {
	// Name labels the check ("interbed", "interbed cell 03", ...).
	Name string

	// Quantity is the column label, e.g. "THICK" or "THETA03".
	Quantity string

	// Reference names the independent source in rendered tables:
	// "CALC" for analytic values, "REF" for a regression run.
	Reference string

	Time       []float64
	Simulated  []float64
	Calculated []float64

	// Diff is Calculated - Simulated.
	Diff []float64

	MaxAbs    float64
	Tolerance float64
	Pass      bool

	// Step is the 1-based step of MaxAbs, 0 for an empty series.
	Step int
}

// Err returns a *check.ToleranceExceeded when the comparison failed.
func (c *Comparison) Err() error {
	if c.Pass {
		return nil
	}
	return &check.ToleranceExceeded{
		Check:     c.Name + " " + c.Quantity,
		Quantity:  c.Quantity,
		Step:      c.Step,
		Delta:     c.MaxAbs,
		Tolerance: c.Tolerance,
	}
}

// Summary is a one-line description of the comparison.
func (c *Comparison) Summary() string {
	msg := fmt.Sprintf("maximum absolute %s %s difference (%15.7g)", c.Name, c.Quantity, c.MaxAbs)
	if c.Pass {
		return msg
	}
	return fmt.Sprintf("%s exceeds %15.7g", msg, c.Tolerance)
}

func newComparison(name, quantity, reference string, time, sim, calc []float64, tol float64) *Comparison {
	c := &Comparison{
		Name:       name,
		Quantity:   quantity,
		Reference:  reference,
		Time:       time,
		Simulated:  sim,
		Calculated: calc,
		Diff:       make([]float64, len(sim)),
		Tolerance:  tol,
	}
	for i := range sim {
		c.Diff[i] = calc[i] - sim[i]
	}
	m, at := check.MaxAbs(c.Diff)
	c.MaxAbs, c.Step = m, at+1
	c.Pass = check.Within(m, tol)
	return c
}

// Curve is the analytic thickness and porosity of a bed over a series.
type Curve struct {
	Thickness []float64
	Porosity  []float64
}

// Evaluate applies the relation to every compaction value. A NaN or
// otherwise invalid compaction is a DataError naming its step; nothing is
// skipped.
func Evaluate(bed Bed, compaction []float64) (Curve, error) {
	if err := bed.Validate(); err != nil {
		return Curve{}, err
	}
	cv := Curve{
		Thickness: make([]float64, len(compaction)),
		Porosity:  make([]float64, len(compaction)),
	}
	for i, c := range compaction {
		p, err := bed.At(c)
		if err != nil {
			var de *check.DataError
			if errors.As(err, &de) {
				de.Step = i + 1
			}
			return Curve{}, err
		}
		cv.Thickness[i], cv.Porosity[i] = p.Thickness, p.Porosity
	}
	return cv, nil
}

// CheckWholeBed recomputes thickness and porosity from the simulated
// compaction and compares them with the simulated values.
//
// It returns one Comparison per quantity (THICK, THETA). A tolerance
// failure is reported through Comparison.Err, not the returned error.
func CheckWholeBed(bed Bed, s Series, tol float64) ([]*Comparison, error) {
	if err := check.ValidateTolerance(tol); err != nil {
		return nil, err
	}
	if err := s.validate("interbed", true, true); err != nil {
		return nil, err
	}
	cv, err := Evaluate(bed, s.Compaction)
	if err != nil {
		return nil, fmt.Errorf("interbed: %w", err)
	}
	time := s.steps(s.Len())
	return []*Comparison{
		newComparison("interbed", QuantityThickness, "CALC", time, s.Thickness, cv.Thickness, tol),
		newComparison("interbed", QuantityPorosity, "CALC", time, s.Porosity, cv.Porosity, tol),
	}, nil
}

// SublayerResult holds the per-sublayer comparisons and the re-aggregation
// check.
type SublayerResult struct {
	// Sublayers[i] holds THICK and THETA comparisons for sublayer i+1.
	Sublayers [][]*Comparison

	// Aggregate compares the thickness sum and thickness-weighted porosity
	// of the analytic sublayer values with the simulated whole-bed values.
	Aggregate []*Comparison
}

// All returns every comparison, sublayers first.
func (r *SublayerResult) All() []*Comparison {
	var out []*Comparison
	for _, sub := range r.Sublayers {
		out = append(out, sub...)
	}
	return append(out, r.Aggregate...)
}

// CheckSublayers checks a bed resolved into len(subs) sublayers of equal
// initial thickness b0/N.
//
// Each sublayer's thickness and porosity are recomputed from its own
// compaction and compared with its simulated values. The analytic values
// are then re-aggregated (Σb, Σbθ/Σb) and compared with the simulated
// whole-bed thickness and porosity. The weighted porosity average is kept
// as the reference aggregation; it is not claimed to be an exact identity
// of the relation.
func CheckSublayers(bed Bed, whole Series, subs []Series, tol float64) (*SublayerResult, error) {
	if err := check.ValidateTolerance(tol); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, check.Structural("", "sublayer check needs at least one sublayer")
	}
	if err := whole.validate("interbed", false, true); err != nil {
		return nil, err
	}
	n := len(whole.Thickness)
	time := whole.steps(n)
	subBed := bed.Sublayer(len(subs))

	res := &SublayerResult{Sublayers: make([][]*Comparison, len(subs))}
	sumB := make([]float64, n)
	sumBTheta := make([]float64, n)

	for i, sub := range subs {
		name := fmt.Sprintf("interbed cell %02d", i+1)
		if err := sub.validate(name, true, true); err != nil {
			return nil, err
		}
		if sub.Len() != n {
			return nil, check.Structural("", "%s: has %d steps, whole bed has %d", name, sub.Len(), n)
		}
		cv, err := Evaluate(subBed, sub.Compaction)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		suffix := fmt.Sprintf("%02d", i+1)
		res.Sublayers[i] = []*Comparison{
			newComparison(name, QuantityThickness+suffix, "CALC", time, sub.Thickness, cv.Thickness, tol),
			newComparison(name, QuantityPorosity+suffix, "CALC", time, sub.Porosity, cv.Porosity, tol),
		}
		for t := 0; t < n; t++ {
			sumB[t] += cv.Thickness[t]
			sumBTheta[t] += cv.Thickness[t] * cv.Porosity[t]
		}
	}

	theta := make([]float64, n)
	for t := range theta {
		if sumB[t] == 0 {
			theta[t] = math.NaN()
			continue
		}
		theta[t] = sumBTheta[t] / sumB[t]
	}

	const aggName = "interbed (from cells)"
	res.Aggregate = []*Comparison{
		newComparison(aggName, QuantityThickness, "CALC", time, whole.Thickness, sumB, tol),
		newComparison(aggName, QuantityPorosity, "CALC", time, whole.Porosity, theta, tol),
	}
	return res, nil
}

// CompareSeries compares a simulated series with the same series from a
// reference run (e.g. total compaction against a regression model).
func CompareSeries(quantity string, time, got, want []float64, tol float64) (*Comparison, error) {
	if err := check.ValidateTolerance(tol); err != nil {
		return nil, err
	}
	if len(got) != len(want) {
		return nil, check.Structural("", "%s: run has %d steps, reference has %d", quantity, len(got), len(want))
	}
	if time != nil && len(time) != len(got) {
		return nil, check.Structural("", "%s: time has %d steps, series has %d", quantity, len(time), len(got))
	}
	for i := range got {
		if err := check.Finite(quantity, i+1, got[i]); err != nil {
			return nil, err
		}
		if err := check.Finite(quantity+" (reference)", i+1, want[i]); err != nil {
			return nil, err
		}
	}
	s := Series{Time: time}
	return newComparison("regression", quantity, "REF", s.steps(len(got)), got, want, tol), nil
}
