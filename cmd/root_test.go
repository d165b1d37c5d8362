package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"ingest", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "spotsync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_Flags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("pages")
	require.NotNil(t, flag, "ingest command should have --pages flag")
	assert.Equal(t, "0", flag.DefValue)

	flag = ingestCmd.Flags().Lookup("stop-on-empty")
	require.NotNil(t, flag, "ingest command should have --stop-on-empty flag")
	assert.Equal(t, "false", flag.DefValue)
}
