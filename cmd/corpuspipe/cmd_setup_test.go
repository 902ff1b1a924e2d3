package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSetupFlags() {
	flagSetupDir, flagSetupReset = "", false
}

func TestSetupCreatesDataLayout(t *testing.T) {
	defer resetSetupFlags()
	withCorpus(t, false)

	require.NoError(t, setupCmd.RunE(setupCmd, nil))

	dataDir := filepath.Join(flagCorpus, ".engine", "data")
	assert.DirExists(t, filepath.Join(dataDir, "bin"))
	assert.DirExists(t, filepath.Join(dataDir, "models"))
	assert.DirExists(t, filepath.Join(dataDir, "logs"))
}

func TestSetupResetRemovesDecisions(t *testing.T) {
	defer resetSetupFlags()
	corpus := withCorpus(t, false)
	require.NoError(t, setupCmd.RunE(setupCmd, nil))

	dirs := pathconf.NewDirs(corpus, filepath.Join(corpus, ".engine", "data"))
	require.NoError(t, os.WriteFile(dirs.DecisionsFile(), []byte(""), 0o644))

	flagSetupReset = true
	require.NoError(t, setupCmd.RunE(setupCmd, nil))
	assert.NoFileExists(t, dirs.DecisionsFile())
}

func TestSetupResetIsSafeWithoutDecisions(t *testing.T) {
	defer resetSetupFlags()
	withCorpus(t, false)
	flagSetupReset = true
	require.NoError(t, setupCmd.RunE(setupCmd, nil))
}
