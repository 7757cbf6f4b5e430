package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/cbc"
	"github.com/roach88/reconcile/internal/check"
	"github.com/roach88/reconcile/internal/consolidation"
	"github.com/roach88/reconcile/internal/listing"
	"github.com/roach88/reconcile/internal/obs"
	"github.com/roach88/reconcile/internal/reconcile"
	"github.com/roach88/reconcile/internal/report"
)

// Options configures a case run.
type Options struct {
	// ReportDir receives the comparison artifacts. Defaults to the case's
	// run directory.
	ReportDir string

	// Logger receives progress logs. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Run executes every check of c and returns the aggregated outcome.
//
// A failing comparison is reported in the outcome, after its artifact has
// been written. Structural and data errors abort the case and are returned
// as the error; no outcome is produced for them.
func Run(ctx context.Context, c *Case, opts Options) (*report.Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dir := opts.ReportDir
	if dir == "" {
		dir = c.RunDir
	}
	rep := report.New(dir, c.Name, logger)
	logger = logger.With("case", c.Name)

	if c.Budget != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("running budget check", "cbc", c.Budget.CBC, "listing", c.Budget.Listing)
		res, err := runBudget(c, c.Budget)
		if err != nil {
			return nil, fmt.Errorf("budget: %w", err)
		}
		if err := rep.WriteBudget(res); err != nil {
			return nil, err
		}
	}

	if c.Interbed != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("running interbed check", "observations", c.Interbed.Observations)
		comps, err := runInterbed(c, c.Interbed)
		if err != nil {
			return nil, err
		}
		if err := rep.WriteInterbed(comps); err != nil {
			return nil, err
		}
	}

	if len(c.Regression) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var comps []*consolidation.Comparison
		for _, r := range c.Regression {
			logger.Debug("running regression check", "name", r.Name, "reference", r.Reference)
			comp, err := runRegression(c, r)
			if err != nil {
				return nil, fmt.Errorf("regression %s: %w", r.Name, err)
			}
			comps = append(comps, comp)
		}
		if err := rep.WriteRegression(comps); err != nil {
			return nil, err
		}
	}

	out := rep.Outcome()
	logger.Info("case finished", "pass", out.Pass, "checks", len(out.Checks))
	return out, nil
}

func runBudget(c *Case, b *BudgetCheck) (*reconcile.Result, error) {
	f, err := cbc.Open(c.path(b.CBC))
	if err != nil {
		return nil, err
	}

	names := b.Categories
	if len(names) == 0 {
		names = budget.FilterPackage(f.RecordNames(), b.Package)
		if len(names) == 0 {
			return nil, check.Structural(f.Path, "no budget records match package %q", b.Package)
		}
	}
	cats, err := budget.NewCategories(names...)
	if err != nil {
		return nil, err
	}

	fine, err := budget.Collect(f.Source(), b.Grid, cats)
	if err != nil {
		return nil, err
	}
	ref, err := listing.Load(c.path(b.Listing), cats, b.Columns)
	if err != nil {
		return nil, err
	}
	return reconcile.Compare(fine, ref, cats, *b.Tolerance)
}

func runInterbed(c *Case, ib *InterbedCheck) ([]*consolidation.Comparison, error) {
	table, err := obs.Load(c.path(ib.Observations))
	if err != nil {
		return nil, err
	}

	bed := consolidation.Bed{Thickness: ib.Thickness}
	if ib.VoidRatio != nil {
		bed.VoidRatio = *ib.VoidRatio
	} else if bed.VoidRatio, err = consolidation.VoidRatioFromPorosity(*ib.Porosity); err != nil {
		return nil, err
	}

	whole, err := readSeries(table, ib.Compaction, ib.Thick, ib.Theta)
	if err != nil {
		return nil, err
	}
	comps, err := consolidation.CheckWholeBed(bed, whole, *ib.Tolerance)
	if err != nil {
		return nil, err
	}

	if s := ib.Sublayers; s != nil {
		subs := make([]consolidation.Series, s.Count)
		for i := range subs {
			n := i + 1
			subs[i], err = readSeries(table,
				fmt.Sprintf("%s%02d", s.Compaction, n),
				fmt.Sprintf("%s%02d", s.Thickness, n),
				fmt.Sprintf("%s%02d", s.Porosity, n))
			if err != nil {
				return nil, err
			}
			subs[i].Time = whole.Time
		}
		res, err := consolidation.CheckSublayers(bed, whole, subs, *ib.Tolerance)
		if err != nil {
			return nil, err
		}
		comps = append(comps, res.All()...)
	}
	return comps, nil
}

func readSeries(t *obs.Table, compaction, thick, theta string) (consolidation.Series, error) {
	var s consolidation.Series
	var err error
	if s.Time, err = t.Time(); err != nil {
		return s, err
	}
	if s.Compaction, err = t.Column(compaction); err != nil {
		return s, err
	}
	if s.Thickness, err = t.Column(thick); err != nil {
		return s, err
	}
	if s.Porosity, err = t.Column(theta); err != nil {
		return s, err
	}
	return s, nil
}

func runRegression(c *Case, r RegressionCheck) (*consolidation.Comparison, error) {
	got, err := obs.Load(c.path(r.Observations))
	if err != nil {
		return nil, err
	}
	want, err := obs.Load(c.path(r.Reference))
	if err != nil {
		return nil, err
	}
	time, err := got.Time()
	if err != nil {
		return nil, err
	}
	gotCol, err := got.Column(r.Column)
	if err != nil {
		return nil, err
	}
	wantCol, err := want.Column(r.Column)
	if err != nil {
		return nil, err
	}
	return consolidation.CompareSeries(r.Name, time, gotCol, wantCol, *r.Tolerance)
}
