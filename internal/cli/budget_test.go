package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/report"
	"github.com/roach88/reconcile/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func budgetArgs(run *testutil.RunDir, outDir string, extra ...string) []string {
	args := []string{
		"budget",
		"--cbc", run.Path("csub.cbc"),
		"--listing", run.Path("csub.bud.csv"),
		"--grid", "1,1,3",
		"--out", outDir,
	}
	return append(args, extra...)
}

func TestBudgetCommandPasses(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)
	outDir := t.TempDir()

	out, err := execute(t, budgetArgs(run, outDir, "--package", "csub", "--name", "csub_budget")...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.FileExists(t, filepath.Join(outDir, "csub_budget"+report.BudgetSuffix))
}

func TestBudgetCommandFailsBeyondTolerance(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0.02)
	outDir := t.TempDir()

	out, err := execute(t, append([]string{"--format", "json"}, budgetArgs(run, outDir, "--category", category)...)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string         `json:"status"`
		Data   report.Outcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "fail", resp.Status)
	require.Len(t, resp.Data.Checks, 1)
	assert.Equal(t, 0.02, resp.Data.Checks[0].MaxAbs)
	assert.Equal(t, category+"_OUT", resp.Data.Checks[0].Quantity)
	assert.FileExists(t, filepath.Join(outDir, "budget"+report.BudgetSuffix))
}

func TestBudgetCommandLooserTolerancePasses(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0.02)

	_, err := execute(t, budgetArgs(run, t.TempDir(), "--package", "csub", "--tol", "0.05")...)
	require.NoError(t, err)
}

func TestBudgetCommandZeroToleranceIsExact(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0.005)

	_, err := execute(t, budgetArgs(run, t.TempDir(), "--package", "csub")...)
	require.NoError(t, err)

	_, err = execute(t, budgetArgs(run, t.TempDir(), "--package", "csub", "--tol", "0")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestBudgetCommandBadGrid(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	args := []string{"budget", "--cbc", run.Path("csub.cbc"), "--listing", run.Path("csub.bud.csv"), "--grid", "1,3", "--package", "csub"}
	_, err := execute(t, args...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "layers,rows,cols")
}

func TestBudgetCommandNeedsPackageOrCategory(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	_, err := execute(t, budgetArgs(run, t.TempDir())...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "package or categories is required")
}

func TestBudgetCommandGridTooSmallIsCommandError(t *testing.T) {
	run := testutil.NewRunDir(t)
	run.BudgetRun("csub", category, 0)

	args := []string{"budget", "--cbc", run.Path("csub.cbc"), "--listing", run.Path("csub.bud.csv"), "--grid", "1,1,2", "--package", "csub", "--out", t.TempDir()}
	out, err := execute(t, args...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [")
}

func TestBudgetCommandMissingRequiredFlags(t *testing.T) {
	_, err := execute(t, "budget", "--grid", "1,1,3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
