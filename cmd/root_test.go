package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bicep/income-sg/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"income", "prices", "interpolate", "estimate", "run", "runs", "export", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "income-sg", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestEstimationFlags(t *testing.T) {
	for _, c := range []string{"run", "estimate"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		for _, f := range []string{"seed", "shapefile", "no-store"} {
			assert.NotNil(t, cmd.Flags().Lookup(f), "%s should have --%s", c, f)
		}
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "regions"} {
		assert.True(t, names[name], "expected runs subcommand %q not found", name)
	}
}

func TestRootCommand_LogFlags(t *testing.T) {
	for _, name := range []string{"log-level", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root should have --%s", name)
	}
}

func TestApplyLogFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    config.LogConfig
		wantErr string
	}{
		{name: "no flags keeps config", args: nil, want: config.LogConfig{Level: "info", Format: "json"}},
		{name: "level override", args: []string{"--log-level", "debug"}, want: config.LogConfig{Level: "debug", Format: "json"}},
		{name: "format override", args: []string{"--log-format", "console"}, want: config.LogConfig{Level: "info", Format: "console"}},
		{name: "both", args: []string{"--log-level=warn", "--log-format=console"}, want: config.LogConfig{Level: "warn", Format: "console"}},
		{name: "bad format", args: []string{"--log-format", "xml"}, wantErr: "unsupported --log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{Use: "x"}
			addLogFlags(c)
			require.NoError(t, c.ParseFlags(tt.args))

			lc := config.LogConfig{Level: "info", Format: "json"}
			err := applyLogFlags(c, &lc)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lc)
		})
	}
}
