package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "warung "+version)
}

func TestMigrateCmd_RequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_DSN", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--env-file", ""})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}
