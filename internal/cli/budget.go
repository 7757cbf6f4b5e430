package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/harness"
	"github.com/roach88/reconcile/internal/report"
)

// BudgetOptions holds flags for the budget command.
type BudgetOptions struct {
	*RootOptions
	CBC        string
	Listing    string
	Package    string
	Categories []string
	Grid       []int
	Tolerance  float64
	ReportDir  string
	Name       string
}

// NewBudgetCommand creates the budget command.
func NewBudgetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BudgetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Reconcile a cell-by-cell budget with the aggregate budget",
		Long: `Reconcile the cell-by-cell budget file with the aggregate budget table.

Cell values are folded onto the grid per category, split into inflow and
outflow, and compared step by step with the <CATEGORY>_IN/_OUT columns of
the aggregate table. The comparison table is written to <name>.bud.cmp.out.

Examples:
  reconcile budget --cbc run.cbc --listing run.bud.csv --package csub --grid 1,1,3
  reconcile budget --cbc run.cbc --listing run.bud.csv --category CSUB-CGELASTIC --grid 2,10,10 --tol 1e-3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBudget(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CBC, "cbc", "", "cell-by-cell budget file (required)")
	cmd.Flags().StringVar(&opts.Listing, "listing", "", "aggregate budget table (required)")
	cmd.Flags().StringVar(&opts.Package, "package", "", "select categories whose tag contains this name")
	cmd.Flags().StringSliceVar(&opts.Categories, "category", nil, "explicit category allow-list (repeatable)")
	cmd.Flags().IntSliceVar(&opts.Grid, "grid", nil, "grid shape as layers,rows,cols (required)")
	cmd.Flags().Float64Var(&opts.Tolerance, "tol", harness.DefaultBudgetTolerance, "maximum absolute difference")
	cmd.Flags().StringVarP(&opts.ReportDir, "out", "o", ".", "artifact directory")
	cmd.Flags().StringVar(&opts.Name, "name", "budget", "artifact name prefix")
	_ = cmd.MarkFlagRequired("cbc")
	_ = cmd.MarkFlagRequired("listing")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func runBudget(opts *BudgetOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if len(opts.Grid) != 3 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--grid needs layers,rows,cols, got %v", opts.Grid))
	}
	c := &harness.Case{
		Name:   opts.Name,
		RunDir: ".",
		Budget: &harness.BudgetCheck{
			CBC:        opts.CBC,
			Listing:    opts.Listing,
			Package:    opts.Package,
			Categories: opts.Categories,
			Grid:       budget.Grid{Layers: opts.Grid[0], Rows: opts.Grid[1], Cols: opts.Grid[2]},
			Tolerance:  &opts.Tolerance,
		},
	}
	return runSingle(f, cmd, c, opts.ReportDir)
}

// runSingle normalizes and runs a case built from flags, then prints the
// outcome.
func runSingle(f *OutputFormatter, cmd *cobra.Command, c *harness.Case, reportDir string) error {
	if err := c.Normalize(); err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	out, err := harness.Run(cmd.Context(), c, harness.Options{ReportDir: reportDir, Logger: f.Logger()})
	if err != nil {
		return f.reportError("comparison could not be run", err)
	}

	if err := f.Result(out.Pass, out, func(w io.Writer) { writeOutcomeText(w, out) }); err != nil {
		return err
	}
	if !out.Pass {
		return WrapExitError(ExitFailure, "tolerance exceeded", out.Err())
	}
	return nil
}

func writeOutcomeText(w io.Writer, out *report.Outcome) {
	for _, c := range out.Checks {
		mark := "✓"
		if !c.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, c.Message)
	}
	for _, a := range out.Artifacts {
		fmt.Fprintf(w, "wrote %s\n", a)
	}
}
