package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/harness"
	"github.com/roach88/reconcile/internal/report"
	"github.com/roach88/reconcile/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter    string // case file filter (glob pattern on the base name)
	Database  string // optional history database
	ReportDir string // artifact directory; defaults to each case's run directory
}

// CaseResult holds the result of a single case.
type CaseResult struct {
	Name      string                `json:"name"`
	File      string                `json:"file"`
	Pass      bool                  `json:"pass"`
	Error     string                `json:"error,omitempty"`
	RunID     string                `json:"run_id,omitempty"`
	Checks    []report.CheckOutcome `json:"checks,omitempty"`
	Artifacts []string              `json:"artifacts,omitempty"`
}

// CheckResult holds the overall result of a check run.
type CheckResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Errors int          `json:"errors"`
	Total  int          `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <cases-dir>",
		Short: "Run every case file in a directory",
		Long: `Run every case file (.yaml, .yml, .cue) found under a directory.

Each case writes its comparison tables and reports pass or fail. A case
that cannot be run at all (missing or corrupt files, mismatched step
counts, non-finite values) is reported as an error.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed a tolerance
  2 - Command error, or a case could not be run

Examples:
  reconcile check ./cases
  reconcile check ./cases --filter "csub_*"
  reconcile check ./cases --db history.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter case files by glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record outcomes in this SQLite database")
	cmd.Flags().StringVar(&opts.ReportDir, "out", "", "write artifacts here instead of each run directory")

	return cmd
}

func runChecks(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := f.Logger()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("cases directory not found: %s", dir))
	}

	files, err := harness.FindCases(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find cases", err)
	}

	var st *store.Store
	if opts.Database != "" {
		if st, err = store.Open(opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	result := CheckResult{Cases: make([]CaseResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		cr := CaseResult{Name: filepath.Base(file), File: file}

		c, err := harness.LoadCase(file)
		if err != nil {
			cr.Error = err.Error()
			result.Cases = append(result.Cases, cr)
			result.Errors++
			continue
		}
		cr.Name = c.Name

		out, err := harness.Run(cmd.Context(), c, harness.Options{ReportDir: opts.ReportDir, Logger: logger})
		if err != nil {
			cr.Error = err.Error()
			result.Cases = append(result.Cases, cr)
			result.Errors++
			continue
		}
		cr.Pass, cr.Checks, cr.Artifacts = out.Pass, out.Checks, out.Artifacts

		if st != nil {
			if cr.RunID, err = st.WriteOutcome(cmd.Context(), out); err != nil {
				return WrapExitError(ExitCommandError, "failed to record outcome", err)
			}
		}

		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	pass := result.Failed == 0 && result.Errors == 0
	if err := f.Result(pass, result, func(w io.Writer) { writeCheckText(w, result) }); err != nil {
		return err
	}

	switch {
	case result.Errors > 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("%d case(s) could not be run", result.Errors))
	case result.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}
	return nil
}

func writeCheckText(w io.Writer, result CheckResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No cases found.")
		return
	}
	for _, cr := range result.Cases {
		switch {
		case cr.Error != "":
			fmt.Fprintf(w, "✗ %s\n  Error: %s\n", cr.Name, cr.Error)
		case cr.Pass:
			fmt.Fprintf(w, "✓ %s\n", cr.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", cr.Name)
			for _, c := range cr.Checks {
				if !c.Pass {
					fmt.Fprintf(w, "  %s\n", c.Message)
				}
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d errors (%d total)\n", result.Passed, result.Failed, result.Errors, result.Total)
}
