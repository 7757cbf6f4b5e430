package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/report"
	"github.com/roach88/reconcile/internal/store"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	st.SetIDGenerator(store.NewFixedGenerator("run-1", "run-2", "run-3"))

	ctx := context.Background()
	for _, out := range []*report.Outcome{
		{Case: "csub_budget", Pass: true, Checks: []report.CheckOutcome{{Name: "budget", Pass: true, Tolerance: 0.01, Message: "budget ok"}}},
		{Case: "csub_sub03", Pass: false, Checks: []report.CheckOutcome{{Name: "interbed THETA", MaxAbs: 0.5, Tolerance: 1e-6, Step: 2, Quantity: "THETA", Message: "THETA off"}}},
		{Case: "csub_budget", Pass: false},
	} {
		_, err := st.WriteOutcome(ctx, out)
		require.NoError(t, err)
	}
	return dbPath
}

func TestHistoryCommandText(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "FAIL  csub_sub03")
	assert.NotContains(t, out, "THETA off")
}

func TestHistoryCommandFilterWithChecksJSON(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := execute(t, "--format", "json", "history", "--db", dbPath, "--case", "csub_sub03", "--checks")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []HistoryRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-2", resp.Data[0].ID)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
	require.Len(t, resp.Data[0].Checks, 1)
	assert.Equal(t, "THETA", resp.Data[0].Checks[0].Quantity)
}

func TestHistoryCommandEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCommandMissingDatabase(t *testing.T) {
	_, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}
