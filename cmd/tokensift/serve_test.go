package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetServeFlags() {
	serveRulesDir = ""
	serveBuiltin = false
	serveAddr = ""
	cfgFile = ""
}

func TestServeCommand_Exists(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NotNil(t, cmd)
	assert.Equal(t, "serve", cmd.Name())
}

func TestRunServe_UnreadableRulesDir(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetServeFlags()
	serveRulesDir = filepath.Join(t.TempDir(), "missing")
	t.Chdir(t.TempDir()) // keep any local tokensift.yaml out of the config search path

	err := runServe(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading rules")
}

func TestRunServe_RefusesEmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetServeFlags()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("patterns: ["), 0o644))
	serveRulesDir = dir
	t.Chdir(t.TempDir())

	err := runServe(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty rule collection")
}
