package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/report"
	"github.com/roach88/reconcile/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Case     string
	Checks   bool
}

// HistoryRun is one recorded run as printed by the history command.
type HistoryRun struct {
	store.Run
	Checks []report.CheckOutcome `json:"checks,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List outcomes recorded by check --db",
		Long: `List the case outcomes recorded in a history database, oldest first.

Examples:
  reconcile history --db history.db
  reconcile history --db history.db --case csub_sub03 --checks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (required)")
	cmd.Flags().StringVar(&opts.Case, "case", "", "only list runs of this case")
	cmd.Flags().BoolVar(&opts.Checks, "checks", false, "include the checks of each run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	// Open would create an empty database; a mistyped path should fail instead.
	if _, err := os.Stat(opts.Database); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, opts.Case)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	history := make([]HistoryRun, 0, len(runs))
	for _, r := range runs {
		h := HistoryRun{Run: r}
		if opts.Checks {
			if h.Checks, err = st.Checks(ctx, r.ID); err != nil {
				return WrapExitError(ExitCommandError, "failed to read checks", err)
			}
		}
		history = append(history, h)
	}

	return f.Result(true, history, func(w io.Writer) { writeHistoryText(w, history) })
}

func writeHistoryText(w io.Writer, history []HistoryRun) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, h := range history {
		verdict := "pass"
		if !h.Pass {
			verdict = "FAIL"
		}
		fmt.Fprintf(w, "%4d  %s  %-4s  %s\n", h.Seq, h.ID, verdict, h.Case)
		for _, c := range h.Checks {
			mark := "✓"
			if !c.Pass {
				mark = "✗"
			}
			fmt.Fprintf(w, "      %s %s\n", mark, c.Message)
		}
	}
}
