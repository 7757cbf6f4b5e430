package harness

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/check"
	"github.com/roach88/reconcile/internal/report"
	"github.com/roach88/reconcile/internal/testutil"
)

const category = "CSUB-CGELASTIC"

func budgetCase(run *testutil.RunDir, name string) *Case {
	tol := 1e-2
	c := &Case{
		Name:   name,
		RunDir: run.Dir,
		Budget: &BudgetCheck{
			CBC:       "csub.cbc",
			Listing:   "csub.bud.csv",
			Package:   "csub",
			Grid:      budget.Grid{Layers: 1, Rows: 1, Cols: 3},
			Tolerance: &tol,
		},
	}
	return c
}

func interbedCase(run *testutil.RunDir, sublayers int) *Case {
	theta := 0.45
	c := &Case{
		Name:   "csub_interbed",
		RunDir: run.Dir,
		Interbed: &InterbedCheck{
			Observations: "csub.obs.csv",
			Porosity:     &theta,
			Thickness:    1,
		},
	}
	if sublayers > 0 {
		c.Interbed.Sublayers = &SublayerColumns{Count: sublayers}
	}
	c.applyDefaults()
	return c
}

func TestRun_BudgetPasses(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	out, err := Run(context.Background(), budgetCase(run, "csub_budget"), Options{})
	require.NoError(t, err)

	assert.True(t, out.Pass)
	require.Len(t, out.Checks, 1)
	assert.Equal(t, 0.0, out.Checks[0].MaxAbs)
	assert.FileExists(t, run.Path("csub_budget"+report.BudgetSuffix))
}

func TestRun_BudgetInjectedDifferenceFails(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0.02)

	out, err := RunWithGolden(t, budgetCase(run, "csub_budget"))
	require.NoError(t, err)

	assert.False(t, out.Pass)
	failed := out.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 0.02, failed[0].MaxAbs)
	assert.Equal(t, 2, failed[0].Step)
	assert.Equal(t, category+"_OUT", failed[0].Quantity)

	var te *check.ToleranceExceeded
	require.ErrorAs(t, out.Err(), &te)
	assert.Equal(t, 2, te.Step)
}

func TestRun_BudgetExplicitCategories(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	c := budgetCase(run, "explicit")
	c.Budget.Package = ""
	c.Budget.Categories = []string{"csub-cgelastic"}

	out, err := Run(context.Background(), c, Options{})
	require.NoError(t, err)
	assert.True(t, out.Pass)
}

func TestRun_BudgetUnknownPackageIsStructural(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	c := budgetCase(run, "nopkg")
	c.Budget.Package = "uzf"

	out, err := Run(context.Background(), c, Options{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, check.IsStructural(err))
}

func TestRun_BudgetStepCountMismatchIsStructural(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)
	run.WriteFile("csub.bud.csv", testutil.Table(
		[]string{"totim", "time_step", "stress_period", category + "_IN", category + "_OUT"},
		[]float64{1, 1, 1, 1, 0},
	))

	_, err := Run(context.Background(), budgetCase(run, "short"), Options{})
	require.Error(t, err)
	assert.True(t, check.IsStructural(err))
	assert.NoFileExists(t, run.Path("short"+report.BudgetSuffix))
}

func TestRun_MissingCBCIsStructural(t *testing.T) {
	run := testutil.NewRunDir(t)
	_, err := Run(context.Background(), budgetCase(run, "missing"), Options{})
	require.Error(t, err)
	assert.True(t, check.IsStructural(err))
}

func TestRun_InterbedWholeAndSublayers(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.InterbedRun("csub", 0.45, 1, []float64{0, 0.05, 0.10}, 19)

	out, err := Run(context.Background(), interbedCase(run, 19), Options{})
	require.NoError(t, err)

	assert.True(t, out.Pass, "%v", out.Failed())
	// THICK and THETA for the whole bed, each of 19 sublayers and the
	// re-aggregation.
	assert.Len(t, out.Checks, 2+19*2+2)
	assert.FileExists(t, run.Path("csub_interbed"+report.InterbedSuffix))
}

func TestRun_InterbedMismatchFails(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.InterbedRun("csub", 0.45, 1, []float64{0, 0.125, 0.25}, 0)

	c := interbedCase(run, 0)
	c.Interbed.Thickness = 2

	out, err := Run(context.Background(), c, Options{})
	require.NoError(t, err)
	assert.False(t, out.Pass)
	require.NotEmpty(t, out.Failed())
	thick := out.Failed()[0]
	assert.Equal(t, "interbed THICK", thick.Name)
	assert.Equal(t, 1.0, thick.MaxAbs)
	assert.Equal(t, 1, thick.Step)
}

func TestRun_InterbedNaNCompactionIsDataError(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.WriteFile("csub.obs.csv", "time,TCOMP,THICK,THETA\n1,0,1,0.45\n2,,0.95,0.42\n")

	out, err := Run(context.Background(), interbedCase(run, 0), Options{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, check.IsData(err))
	assert.False(t, check.IsTolerance(err))
}

func TestRun_InterbedMissingColumnIsStructural(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.InterbedRun("csub", 0.45, 1, []float64{0, 0.05}, 2)

	_, err := Run(context.Background(), interbedCase(run, 3), Options{})
	require.Error(t, err)
	assert.True(t, check.IsStructural(err))
	assert.Contains(t, err.Error(), "DBCOMP03")
}

func TestRun_Regression(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.WriteFile("csub.obs.csv", testutil.Table([]string{"time", "TCOMP"}, []float64{1, 0}, []float64{2, 0.25}))
	run.WriteFile("mf6/csub.obs.csv", testutil.Table([]string{"time", "TCOMP"}, []float64{1, 0}, []float64{2, 0.25}))

	c := &Case{
		Name:       "reg",
		RunDir:     run.Dir,
		Regression: []RegressionCheck{{Name: "TCOMP", Observations: "csub.obs.csv", Reference: "mf6/csub.obs.csv"}},
	}
	c.applyDefaults()

	out, err := Run(context.Background(), c, Options{ReportDir: filepath.Join(run.Dir, "out")})
	require.NoError(t, err)
	assert.True(t, out.Pass)
	assert.Equal(t, []string{filepath.Join(run.Dir, "out", "reg"+report.RegressionSuffix)}, out.Artifacts)

	run.WriteFile("mf6/csub.obs.csv", testutil.Table([]string{"time", "TCOMP"}, []float64{1, 0}, []float64{2, 0.5}))
	out, err = Run(context.Background(), c, Options{})
	require.NoError(t, err)
	assert.False(t, out.Pass)
	assert.Equal(t, 0.25, out.Failed()[0].MaxAbs)
}

func TestRun_LoadedCaseEndToEnd(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)
	run.InterbedRun("csub", 0.45, 1, []float64{0, 0.05, 0.10}, 4)

	path := writeCase(t, run.Dir, "cases/all.yaml", `
name: all
run_dir: ..
budget:
  cbc: csub.cbc
  listing: csub.bud.csv
  package: CSUB
  grid: {layers: 1, rows: 1, cols: 3}
interbed:
  observations: csub.obs.csv
  porosity: 0.45
  thickness: 1
  sublayers: {count: 4}
`)
	c, err := LoadCase(path)
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	out, err := Run(context.Background(), c, Options{Logger: logger})
	require.NoError(t, err)

	assert.True(t, out.Pass, "%v", out.Failed())
	assert.Len(t, out.Artifacts, 2)
	for _, a := range out.Artifacts {
		info, err := os.Stat(a)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
	assert.Contains(t, logs.String(), "case finished")
	assert.Contains(t, logs.String(), "case=all")
}

func TestRun_CanceledContext(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, budgetCase(run, "canceled"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
