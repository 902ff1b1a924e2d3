package pathconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	params := []ConfigParam{
		{Key: "metadata.language", Type: "string", Choices: []string{"swe", "eng"}},
		{Key: "xml_import.elements", Type: "array"},
	}
	doc, err := Generate(params)
	require.NoError(t, err)

	raw := map[string]interface{}{
		"metadata.language":    "swe",
		"xml_import.elements": []interface{}{"text"},
	}
	assert.NoError(t, Validate(doc, raw))

	bad := map[string]interface{}{
		"metadata.language": "fra",
	}
	assert.Error(t, Validate(doc, bad))
}
