package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocompleteWritesCacheFile(t *testing.T) {
	withCorpus(t, false)

	e, err := loadEnv(false)
	require.NoError(t, err)
	cachePath := e.dirs.AutocompleteCacheFile()
	e.close()

	require.NoError(t, autocompleteCmd.RunE(autocompleteCmd, nil))

	data, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	var entries []string
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Empty(t, entries, "no processors registered, so the cache should be empty")
}
