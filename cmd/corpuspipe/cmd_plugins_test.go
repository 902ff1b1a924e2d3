package main

import (
	"testing"

	"github.com/bittoy/corpuspipe/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginsInstallListUninstall(t *testing.T) {
	withCorpus(t, false)

	require.NoError(t, pluginsInstallCmd.RunE(pluginsInstallCmd, []string{"tagger", "/opt/tagger.so"}))

	e, err := loadEnv(false)
	require.NoError(t, err)
	manifest, err := registry.LoadPluginManifest(manifestPath(e))
	e.close()
	require.NoError(t, err)
	require.Len(t, manifest.Plugin, 1)
	assert.Equal(t, "tagger", manifest.Plugin[0].Name)
	assert.Equal(t, "/opt/tagger.so", manifest.Plugin[0].Path)
	assert.NotEmpty(t, manifest.Plugin[0].InstanceID)

	out := captureStdout(t, func() {
		require.NoError(t, pluginsListCmd.RunE(pluginsListCmd, nil))
	})
	assert.Contains(t, out, "tagger")
	assert.Contains(t, out, "/opt/tagger.so")

	err = pluginsInstallCmd.RunE(pluginsInstallCmd, []string{"tagger", "/opt/other.so"})
	require.Error(t, err, "reinstalling the same name without uninstalling first should fail")

	require.NoError(t, pluginsUninstallCmd.RunE(pluginsUninstallCmd, []string{"tagger"}))

	e2, err := loadEnv(false)
	require.NoError(t, err)
	manifest2, err := registry.LoadPluginManifest(manifestPath(e2))
	e2.close()
	require.NoError(t, err)
	assert.Empty(t, manifest2.Plugin)
}

func TestPluginsUninstallUnknownNameFails(t *testing.T) {
	withCorpus(t, false)
	err := pluginsUninstallCmd.RunE(pluginsUninstallCmd, []string{"ghost"})
	require.Error(t, err)
}
