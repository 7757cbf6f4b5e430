// Package report applies tolerances to comparison results, writes the
// comparison artifacts and aggregates sub-check verdicts into one outcome
// per case.
//
// Artifacts are written before a verdict is returned, so a failing case
// always leaves its tables behind for inspection. Any failing sub-check
// fails the case.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/roach88/reconcile/internal/check"
	"github.com/roach88/reconcile/internal/consolidation"
	"github.com/roach88/reconcile/internal/reconcile"
)

// Artifact filename suffixes, appended to the case name.
const (
	BudgetSuffix     = ".bud.cmp.out"
	InterbedSuffix   = ".ibc.cmp.out"
	RegressionSuffix = ".comp.cmp.out"
)

// CheckOutcome is the verdict of a single sub-check.
type CheckOutcome struct {
	Name      string  `json:"name"`
	Pass      bool    `json:"pass"`
	MaxAbs    float64 `json:"max_abs"`
	Tolerance float64 `json:"tolerance"`
	Step      int     `json:"step,omitempty"`
	Quantity  string  `json:"quantity,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// MarshalJSON encodes a NaN maximum as null.
func (c CheckOutcome) MarshalJSON() ([]byte, error) {
	type plain CheckOutcome
	out := struct {
		plain
		MaxAbs *float64 `json:"max_abs"`
	}{plain: plain(c)}
	if !math.IsNaN(c.MaxAbs) {
		out.MaxAbs = &c.MaxAbs
	}
	return json.Marshal(out)
}

// Outcome is the verdict of a whole case.
type Outcome struct {
	Case      string         `json:"case"`
	Pass      bool           `json:"pass"`
	Checks    []CheckOutcome `json:"checks"`
	Artifacts []string       `json:"artifacts,omitempty"`

	failures []error
}

// NewOutcome creates a passing outcome with no checks.
func NewOutcome(name string) *Outcome {
	return &Outcome{Case: name, Pass: true, Checks: []CheckOutcome{}}
}

// Err joins every recorded failure, or returns nil when the case passed.
func (o *Outcome) Err() error {
	if o.Pass {
		return nil
	}
	if len(o.failures) == 0 {
		return fmt.Errorf("case %s failed", o.Case)
	}
	return errors.Join(o.failures...)
}

// Failed returns the checks that did not pass.
func (o *Outcome) Failed() []CheckOutcome {
	var out []CheckOutcome
	for _, c := range o.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

func (o *Outcome) add(c CheckOutcome, err error) {
	o.Checks = append(o.Checks, c)
	if !c.Pass {
		o.Pass = false
		if err != nil {
			o.failures = append(o.failures, err)
		}
	}
}

// Reporter writes artifacts for one case into Dir and records verdicts.
type Reporter struct {
	Dir  string
	Case string

	logger  *slog.Logger
	outcome *Outcome
}

// New creates a Reporter. A nil logger discards log output.
func New(dir, name string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reporter{
		Dir:     dir,
		Case:    name,
		logger:  logger.With("case", name),
		outcome: NewOutcome(name),
	}
}

// Path returns the artifact path for a suffix.
func (r *Reporter) Path(suffix string) string {
	return filepath.Join(r.Dir, r.Case+suffix)
}

// Outcome returns the aggregated verdict so far.
func (r *Reporter) Outcome() *Outcome {
	return r.outcome
}

// Record adds the verdict of a sub-check from its error: nil passes and a
// *check.ToleranceExceeded fails. Any other error is not a verdict; it is
// returned unchanged and nothing is recorded.
func (r *Reporter) Record(name string, err error) error {
	if err == nil {
		r.outcome.add(CheckOutcome{Name: name, Pass: true}, nil)
		r.logger.Info("check passed", "check", name)
		return nil
	}
	var te *check.ToleranceExceeded
	if !errors.As(err, &te) {
		return err
	}
	r.outcome.add(CheckOutcome{
		Name:      name,
		MaxAbs:    te.Delta,
		Tolerance: te.Tolerance,
		Step:      te.Step,
		Quantity:  te.Quantity,
		Message:   err.Error(),
	}, err)
	r.logger.Warn("check failed", "check", name, "error", err)
	return nil
}

// WriteBudget writes the budget comparison table and records its verdict.
func (r *Reporter) WriteBudget(res *reconcile.Result) error {
	if err := r.writeArtifact(BudgetSuffix, func(w io.Writer) error {
		return reconcile.WriteTable(w, res)
	}); err != nil {
		return err
	}
	return r.recordResult(CheckOutcome{
		Name:      reconcile.CheckName,
		Pass:      res.Pass,
		MaxAbs:    res.MaxAbs,
		Tolerance: res.Tolerance,
		Step:      res.Step,
		Quantity:  res.Column,
		Message:   res.Summary(),
	}, res.Err())
}

// WriteInterbed writes the interbed comparison table and records a verdict
// for every comparison.
func (r *Reporter) WriteInterbed(comps []*consolidation.Comparison) error {
	return r.writeComparisons(InterbedSuffix, comps)
}

// WriteRegression writes the regression comparison table and records a
// verdict for every comparison.
func (r *Reporter) WriteRegression(comps []*consolidation.Comparison) error {
	return r.writeComparisons(RegressionSuffix, comps)
}

func (r *Reporter) writeComparisons(suffix string, comps []*consolidation.Comparison) error {
	if err := r.writeArtifact(suffix, func(w io.Writer) error {
		return consolidation.WriteTable(w, comps)
	}); err != nil {
		return err
	}
	for _, c := range comps {
		if err := r.recordResult(CheckOutcome{
			Name:      c.Name + " " + c.Quantity,
			Pass:      c.Pass,
			MaxAbs:    c.MaxAbs,
			Tolerance: c.Tolerance,
			Step:      c.Step,
			Quantity:  c.Quantity,
			Message:   c.Summary(),
		}, c.Err()); err != nil {
			return err
		}
	}
	return nil
}

// recordResult records a passing check with its details, or hands the
// failure verdict to Record.
func (r *Reporter) recordResult(c CheckOutcome, verdict error) error {
	if verdict != nil {
		return r.Record(c.Name, verdict)
	}
	r.outcome.add(c, nil)
	r.logger.Info("check passed", "check", c.Name, "max_abs", c.MaxAbs, "tolerance", c.Tolerance)
	return nil
}

func (r *Reporter) writeArtifact(suffix string, render func(io.Writer) error) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	path := r.Path(suffix)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	r.outcome.Artifacts = append(r.outcome.Artifacts, path)
	r.logger.Debug("wrote artifact", "path", path)
	return nil
}
