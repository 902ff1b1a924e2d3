package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsdParamSpec struct {
	Sense string `role:"annotation-output" default:"<token>:wsd.sense"`
	Word  string `role:"annotation-input" default:"<token:word>"`
	Model string `role:"model" default:"wsd/default.bin"`
	Extra string
}

func TestParamsFromStruct_BuildsRoleTaggedParams(t *testing.T) {
	params := ParamsFromStruct(&wsdParamSpec{})
	require.Len(t, params, 4)

	byName := map[string]Param{}
	for _, p := range params {
		byName[p.Name] = p
	}

	assert.Equal(t, RoleAnnotationOutput, byName["Sense"].Role)
	assert.Equal(t, "<token>:wsd.sense", byName["Sense"].Default)
	assert.Equal(t, RoleAnnotationInput, byName["Word"].Role)
	assert.Equal(t, RoleModel, byName["Model"].Role)
	// A field without a role tag defaults to scalar, per spec §4.B point 2
	// "Parameters without a role tag are treated as scalars."
	assert.Equal(t, RoleScalar, byName["Extra"].Role)
}

func TestRegister_IntrospectsParamSpecWhenParamsEmpty(t *testing.T) {
	r := New()
	impl := &Implementation{
		Processor: Processor{
			Module:   "wsd",
			Function: "annotate",
			Kind:     KindAnnotator,
			Summary:  "Word-sense disambiguation.",
		},
		ParamSpec: &wsdParamSpec{},
	}
	require.NoError(t, r.Register(impl))

	got, ok := r.Get("wsd:annotate")
	require.True(t, ok)
	require.Len(t, got.Params, 4)
}

func TestRegister_HandWrittenParamsTakePrecedenceOverParamSpec(t *testing.T) {
	r := New()
	impl := &Implementation{
		Processor: Processor{
			Module:   "wsd",
			Function: "annotate",
			Kind:     KindAnnotator,
			Summary:  "Word-sense disambiguation.",
			Params: []Param{
				{Name: "out", Role: RoleAnnotationOutput, Default: "<token>:wsd.sense"},
			},
		},
		ParamSpec: &wsdParamSpec{},
	}
	require.NoError(t, r.Register(impl))

	got, ok := r.Get("wsd:annotate")
	require.True(t, ok)
	require.Len(t, got.Params, 1, "hand-assembled Params must not be overwritten by ParamSpec introspection")
}

func TestBindConfig_DecodesMapKindSource(t *testing.T) {
	type senseOptions struct {
		Model     string `config:"model"`
		Threshold int    `config:"threshold"`
	}

	// raw mimics a pathconf.Config subtree: a map-kind value whose
	// concrete type is not map[string]interface{}, the same shape
	// BindConfig must handle when fed straight from Config.Get.
	type boxedTree map[string]interface{}
	raw := boxedTree{"model": "default", "threshold": "3"}

	var out senseOptions
	require.NoError(t, BindConfig(raw, &out))
	assert.Equal(t, "default", out.Model)
	assert.Equal(t, 3, out.Threshold)
}
