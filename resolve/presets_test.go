package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPresets_ExpandsAndExcludes(t *testing.T) {
	lib := PresetLibrary{
		"SWE_DEFAULT.saldo": {"saldo.baseform", "saldo.lemgram"},
	}
	out := ApplyPresets([]string{"SWE_DEFAULT.saldo", "not saldo.lemgram"}, lib, nil)
	assert.Equal(t, []string{"saldo.baseform"}, out)
}

func TestApplyPresets_Ellipsis(t *testing.T) {
	out := ApplyPresets([]string{"<token>", "..."}, nil, []string{"<token>", "<sentence>", "<paragraph>"})
	assert.ElementsMatch(t, []string{"<token>", "<sentence>", "<paragraph>"}, out)
}

func TestApplyPresets_Dedup(t *testing.T) {
	out := ApplyPresets([]string{"<token>", "<token>"}, nil, nil)
	assert.Equal(t, []string{"<token>"}, out)
}
