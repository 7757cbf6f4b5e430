package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/harness"
)

// InterbedOptions holds flags for the interbed command.
type InterbedOptions struct {
	*RootOptions
	Observations string
	Porosity     float64
	VoidRatio    float64
	Thickness    float64
	Sublayers    int
	Tolerance    float64
	ReportDir    string
	Name         string
}

// NewInterbedCommand creates the interbed command.
func NewInterbedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InterbedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interbed",
		Short: "Recompute interbed thickness and porosity from compaction",
		Long: `Recompute interbed thickness and porosity from the observed compaction.

The observation table must hold time, TCOMP, THICK and THETA columns. With
--sublayers N it must also hold DBCOMPnn, DBTHICKnn and DBPOROnn for
nn = 01..N; each sublayer is checked on its own and the sublayers are
re-aggregated and compared with the whole bed. The comparison table is
written to <name>.ibc.cmp.out.

Examples:
  reconcile interbed --obs csub_obs.csv --porosity 0.45 --thickness 1
  reconcile interbed --obs csub_obs.csv --porosity 0.45 --thickness 1 --sublayers 19 --tol 1e-6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterbed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Observations, "obs", "", "observation table (required)")
	cmd.Flags().Float64Var(&opts.Porosity, "porosity", 0, "initial porosity")
	cmd.Flags().Float64Var(&opts.VoidRatio, "void-ratio", 0, "initial void ratio (instead of --porosity)")
	cmd.Flags().Float64Var(&opts.Thickness, "thickness", 0, "initial bed thickness (required)")
	cmd.Flags().IntVar(&opts.Sublayers, "sublayers", 0, "number of delay sublayers to check")
	cmd.Flags().Float64Var(&opts.Tolerance, "tol", harness.DefaultInterbedTolerance, "maximum absolute difference")
	cmd.Flags().StringVarP(&opts.ReportDir, "out", "o", ".", "artifact directory")
	cmd.Flags().StringVar(&opts.Name, "name", "interbed", "artifact name prefix")
	_ = cmd.MarkFlagRequired("obs")
	_ = cmd.MarkFlagRequired("thickness")
	cmd.MarkFlagsOneRequired("porosity", "void-ratio")
	cmd.MarkFlagsMutuallyExclusive("porosity", "void-ratio")

	return cmd
}

func runInterbed(opts *InterbedOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ib := &harness.InterbedCheck{
		Observations: opts.Observations,
		Thickness:    opts.Thickness,
		Tolerance:    &opts.Tolerance,
	}
	if cmd.Flags().Changed("void-ratio") {
		ib.VoidRatio = &opts.VoidRatio
	} else {
		ib.Porosity = &opts.Porosity
	}
	if opts.Sublayers > 0 {
		ib.Sublayers = &harness.SublayerColumns{Count: opts.Sublayers}
	}

	c := &harness.Case{Name: opts.Name, RunDir: ".", Interbed: ib}
	return runSingle(f, cmd, c, opts.ReportDir)
}
