package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// whatever it wrote, for verbs that print directly (fmt.Println) rather
// than returning a value.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	prev := os.Stdout
	os.Stdout = w
	fn()
	os.Stdout = prev
	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

// withCorpus points flagCorpus/flagDataDir at a fresh temp corpus for the
// duration of a test, restoring the previous values on cleanup. Every verb
// under test reads these as package-level cobra flag vars (see main.go), so
// tests drive them directly rather than going through cobra.Execute.
func withCorpus(t *testing.T, writeConfig bool) string {
	t.Helper()
	corpus := t.TempDir()
	if writeConfig {
		require.NoError(t, os.WriteFile(filepath.Join(corpus, "config.yaml"), []byte("metadata:\n  language: eng\n"), 0o644))
	}

	prevCorpus, prevData := flagCorpus, flagDataDir
	flagCorpus = corpus
	flagDataDir = filepath.Join(corpus, ".engine", "data")
	t.Cleanup(func() {
		flagCorpus, flagDataDir = prevCorpus, prevData
	})
	return corpus
}
