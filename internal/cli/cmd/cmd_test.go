package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/flashota/internal/domain/build"
)

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"check", "update", "run", "history", "config", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	sub, _, err := rootCmd.Find([]string{"config", "schema"})
	require.NoError(t, err)
	assert.Equal(t, "schema", sub.Name())
}

func TestFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
	require.NotNil(t, updateCmd.Flags().Lookup("yes"))
	require.NotNil(t, checkCmd.Flags().Lookup("json"))

	limit := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestVersionLabel(t *testing.T) {
	assert.Equal(t, "dev", versionLabel(build.Info{}))
	assert.Equal(t, "dev", versionLabel(build.Info{Version: "dev"}))
	assert.Equal(t, "1.2.0", versionLabel(build.Info{Version: "1.2.0"}))
}
