package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetCleanFlags() {
	flagCleanAll, flagCleanExport, flagCleanLogs = false, false, false
}

func touch(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0o644))
}

func TestCleanDefaultRemovesWorkExportLogs(t *testing.T) {
	defer resetCleanFlags()
	withCorpus(t, false)
	e, err := loadEnv(false)
	require.NoError(t, err)
	logDir := filepath.Join(e.dirs.Data, "logs")
	touch(t, e.dirs.Work)
	touch(t, e.dirs.Export)
	touch(t, logDir)
	e.close()

	require.NoError(t, cleanCmd.RunE(cleanCmd, nil))

	assert.NoDirExists(t, e.dirs.Work)
	assert.NoDirExists(t, e.dirs.Export)
	assert.NoDirExists(t, logDir)
}

func TestCleanExportOnlyLeavesWork(t *testing.T) {
	defer resetCleanFlags()
	withCorpus(t, false)
	e, err := loadEnv(false)
	require.NoError(t, err)
	touch(t, e.dirs.Work)
	touch(t, e.dirs.Export)
	e.close()

	flagCleanExport = true
	require.NoError(t, cleanCmd.RunE(cleanCmd, nil))

	assert.DirExists(t, e.dirs.Work)
	assert.NoDirExists(t, e.dirs.Export)
}
