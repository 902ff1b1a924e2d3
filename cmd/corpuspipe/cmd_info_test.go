package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsStringMapDetectsNamedMapType(t *testing.T) {
	type namedTree map[string]interface{}
	var boxed interface{} = namedTree{"a": 1}

	m, ok := asStringMap(boxed)
	require.True(t, ok, "a named map-of-string type must still be detected via reflection")
	assert.Equal(t, 1, m["a"])

	_, ok = asStringMap("not a map")
	assert.False(t, ok)
}

func TestPrintConfigTreeFlattensNestedTree(t *testing.T) {
	type namedTree map[string]interface{}
	tree := map[string]interface{}{
		"metadata": namedTree{"language": "eng", "variety": namedTree{"code": "gb"}},
		"top":      "value",
	}

	out := captureStdout(t, func() { printConfigTree(tree, "") })
	assert.Contains(t, out, "metadata.language = eng")
	assert.Contains(t, out, "metadata.variety.code = gb")
	assert.Contains(t, out, "top = value")
}

func TestConfigCmdPrintsKnownKey(t *testing.T) {
	withCorpus(t, true)

	out := captureStdout(t, func() {
		require.NoError(t, configCmd.RunE(configCmd, []string{"metadata.language"}))
	})
	assert.Contains(t, out, "eng")
}

func TestConfigCmdUnknownKeyIsUserError(t *testing.T) {
	withCorpus(t, true)
	err := configCmd.RunE(configCmd, []string{"no.such.key"})
	require.Error(t, err)
	_, ok := err.(userError)
	assert.True(t, ok, "an unset config key should surface as a user error")
}

func resetModulesFlags() {
	flagModAnnotators, flagModImporters, flagModExporters = false, false, false
}

func TestModulesCmdRunsWithEmptyRegistry(t *testing.T) {
	defer resetModulesFlags()
	withCorpus(t, false)

	out := captureStdout(t, func() {
		require.NoError(t, modulesCmd.RunE(modulesCmd, nil))
	})
	assert.Empty(t, out, "no processors are registered in a fresh corpus")
}

func TestPresetsCmdRunsWithNoLibrary(t *testing.T) {
	withCorpus(t, false)
	out := captureStdout(t, func() {
		require.NoError(t, presetsCmd.RunE(presetsCmd, nil))
	})
	assert.Empty(t, out)
}

func TestClassesCmdRunsWithEmptyRegistry(t *testing.T) {
	withCorpus(t, true)
	out := captureStdout(t, func() {
		require.NoError(t, classesCmd.RunE(classesCmd, nil))
	})
	assert.Empty(t, out)
}

func TestLanguagesCmdRunsWithEmptyRegistry(t *testing.T) {
	withCorpus(t, false)
	out := captureStdout(t, func() {
		require.NoError(t, languagesCmd.RunE(languagesCmd, nil))
	})
	assert.Empty(t, out)
}
