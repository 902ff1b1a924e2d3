package registry

import (
	"testing"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenAnnotator() *Implementation {
	return &Implementation{
		Processor: Processor{
			Module:   "segment",
			Function: "token",
			Kind:     KindAnnotator,
			Summary:  "Tokenises text into <token> spans.",
			Params: []Param{
				{Name: "out", Role: RoleAnnotationOutput, Default: "<token>"},
				{Name: "text", Role: RoleAnnotationInput, Default: "<text>"},
			},
			Outputs: []string{"segment.token"},
		},
		Run: func(map[string]interface{}) error { return nil },
	}
}

func TestRegister_DuplicateIdentifierRejected(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(tokenAnnotator()))
	err := r.Register(tokenAnnotator())
	require.Error(t, err)
	assert.True(t, corpuserr.IsKind(err, corpuserr.KindProcessorInvalid))
}

func TestRegister_MissingDescriptionRejected(t *testing.T) {
	r := New()
	impl := tokenAnnotator()
	impl.Summary = ""
	err := r.Register(impl)
	require.Error(t, err)
	assert.True(t, corpuserr.IsKind(err, corpuserr.KindProcessorInvalid))
}

func TestRegister_UnknownRoleRejected(t *testing.T) {
	r := New()
	impl := tokenAnnotator()
	impl.Params[0].Role = "not-a-real-role"
	err := r.Register(impl)
	require.Error(t, err)
}

func TestRegister_ImporterWithoutOutputsRejected(t *testing.T) {
	r := New()
	impl := &Implementation{
		Processor: Processor{
			Module:   "xml_import",
			Function: "parse",
			Kind:     KindImporter,
			Summary:  "Parses XML source files.",
		},
	}
	err := r.Register(impl)
	require.Error(t, err)
}

func TestByKind(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(tokenAnnotator()))
	annotators := r.ByKind(KindAnnotator)
	require.Len(t, annotators, 1)
	assert.Equal(t, "segment:token", annotators[0].ID())
}

func TestConfigDecls_IncompatibleRedeclarationRejected(t *testing.T) {
	r := New()
	a := tokenAnnotator()
	a.Config = []ConfigDecl{{Name: "wsd.sense_model", Type: "string"}}
	require.NoError(t, r.Register(a))

	b := &Implementation{
		Processor: Processor{
			Module:   "wsd",
			Function: "annotate",
			Kind:     KindAnnotator,
			Summary:  "Word-sense disambiguation.",
			Config:   []ConfigDecl{{Name: "wsd.sense_model", Type: "number"}},
		},
	}
	err := r.Register(b)
	require.Error(t, err)
}
