package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "reconcile", cmd.Use)
	assert.Contains(t, cmd.Long, "cell-by-cell budget")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"check", "budget", "interbed", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestBudgetCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	budgetCmd, _, err := cmd.Find([]string{"budget"})
	require.NoError(t, err)

	for _, name := range []string{"cbc", "listing", "package", "category", "grid", "tol", "name"} {
		assert.NotNil(t, budgetCmd.Flags().Lookup(name), "flag %s", name)
	}
	outFlag := budgetCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)
	assert.Equal(t, "0.01", budgetCmd.Flags().Lookup("tol").DefValue)
}

func TestInterbedCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	interbedCmd, _, err := cmd.Find([]string{"interbed"})
	require.NoError(t, err)

	for _, name := range []string{"obs", "porosity", "void-ratio", "thickness", "sublayers", "tol", "out", "name"} {
		assert.NotNil(t, interbedCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "1e-06", interbedCmd.Flags().Lookup("tol").DefValue)
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	assert.NotNil(t, checkCmd.Flags().Lookup("filter"))
	assert.NotNil(t, checkCmd.Flags().Lookup("db"))
	assert.NotNil(t, checkCmd.Flags().Lookup("out"))
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "xml", "check", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
