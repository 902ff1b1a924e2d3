package schedule

import (
	"testing"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildBindings_StructConfigParamDecodesSubtree exercises
// registry.BindConfig's wiring into job-binding: a RoleConfig parameter
// declaring Type "struct" gets its whole configuration subtree decoded
// rather than passed through as a raw scalar, per spec §4.B point 2.
func TestBuildBindings_StructConfigParamDecodesSubtree(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "pos", Function: "export", Kind: registry.KindExporter, Summary: "POS export options.",
			Params: []registry.Param{
				{Name: "options", Role: registry.RoleConfig, Default: "pos", Type: "struct"},
			},
		},
	}))

	cfg := mapConfig{"pos": map[string]interface{}{"model": "default", "threshold": 3}}
	dirs := pathconf.Dirs{Corpus: t.TempDir()}
	dirs.Work = dirs.Corpus + "/work"
	resolver := resolve.NewResolver(dirs, cfg, reg, nil)

	c := compile.NewCompiler(reg, resolver, nil, "", "")
	rules, err := c.Compile(nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	bindings, err := buildBindings(rules[0], "", resolver)
	require.NoError(t, err)

	decoded, ok := bindings["options"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "default", decoded["model"])
	assert.Equal(t, 3, decoded["threshold"])
}

// TestBuildBindings_ScalarConfigParamUnchanged pins the non-struct RoleConfig
// path: without a Type of "struct", the raw config value is still passed
// through as-is (the pre-existing behavior this change must not regress).
func TestBuildBindings_ScalarConfigParamUnchanged(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "wsd", Function: "annotate", Kind: registry.KindAnnotator, Summary: "WSD.",
			Params: []registry.Param{
				{Name: "word", Role: registry.RoleAnnotationInput, Default: "<token:word>"},
				{Name: "model", Role: registry.RoleConfig, Default: "wsd.sense_model"},
			},
		},
	}))

	cfg := mapConfig{"wsd.sense_model": "default", "classes": map[string]interface{}{"token": "segment.token"}}
	dirs := pathconf.Dirs{Corpus: t.TempDir()}
	dirs.Work = dirs.Corpus + "/work"
	resolver := resolve.NewResolver(dirs, cfg, reg, nil)

	c := compile.NewCompiler(reg, resolver, nil, "", "")
	rules, err := c.Compile(nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	bindings, err := buildBindings(rules[0], "doc1", resolver)
	require.NoError(t, err)
	assert.Equal(t, "default", bindings["model"])
}
