package main

import (
	"path/filepath"
	"testing"

	"github.com/bittoy/corpuspipe/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerInstaller() *registry.Implementation {
	return &registry.Implementation{
		Processor: registry.Processor{
			Module: "setup", Function: "dict", Kind: registry.KindInstaller,
			Summary: "Installs a dictionary.",
			Params: []registry.Param{
				{Name: "sentinel", Role: registry.RoleMarker, Default: "dict.installed"},
				{Name: "binpath", Role: registry.RoleBinary, Default: "dict-tool"},
				{Name: "model", Role: registry.RoleModel, Default: "dict.bin"},
				{Name: "threshold", Role: registry.RoleScalar, Default: "0.5"},
			},
		},
	}
}

// installBindings is the piece of runMarkerProcessors's logic that doesn't
// depend on loadEnv's internal registry construction, so it's exercised
// directly with a hand-built processor against a freshly loaded env.
func TestInstallBindingsResolvesEachRole(t *testing.T) {
	corpus := withCorpus(t, true)
	e, err := loadEnv(true)
	require.NoError(t, err)
	defer e.close()

	impl := markerInstaller()
	bindings, markerPath, err := installBindings(e, impl)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(corpus, ".engine", "installed", "dict.installed"), markerPath)
	assert.Equal(t, markerPath, bindings["sentinel"])
	assert.Equal(t, filepath.Join(e.dirs.BinPath(), "dict-tool"), bindings["binpath"])
	assert.Equal(t, filepath.Join(e.dirs.Data, "models", "dict.bin"), bindings["model"])
	assert.Equal(t, "0.5", bindings["threshold"])
}

func TestInstallBindingsNoMarkerParam(t *testing.T) {
	withCorpus(t, true)
	e, err := loadEnv(true)
	require.NoError(t, err)
	defer e.close()

	impl := &registry.Implementation{Processor: registry.Processor{
		Module: "setup", Function: "noop", Kind: registry.KindInstaller, Summary: "No marker.",
	}}
	_, markerPath, err := installBindings(e, impl)
	require.NoError(t, err)
	assert.Empty(t, markerPath)
}

func TestToSet(t *testing.T) {
	s := toSet([]string{"a", "b"})
	assert.True(t, s["a"])
	assert.True(t, s["b"])
	assert.False(t, s["c"])
	assert.Empty(t, toSet(nil))
}
