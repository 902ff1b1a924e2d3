package pathconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestLoadCorpusConfig_MergesParentChain(t *testing.T) {
	root := t.TempDir()
	parent := filepath.Join(root, "parent")
	corpus := filepath.Join(root, "corpus")

	writeConfig(t, parent, "metadata:\n  language: swe\nimport:\n  importer: xml_import:parse\n")
	writeConfig(t, corpus, "parent: ../parent\nexport:\n  annotations:\n    - <sentence>\n")

	cfg, err := LoadCorpusConfig(Dirs{Corpus: corpus})
	require.NoError(t, err)

	lang, ok := cfg.Get("metadata.language", nil)
	assert.True(t, ok)
	assert.Equal(t, "swe", lang)

	importer, ok := cfg.Get("import.importer", nil)
	assert.True(t, ok)
	assert.Equal(t, "xml_import:parse", importer)
}

func TestLoadCorpusConfig_CorpusOverridesParent(t *testing.T) {
	root := t.TempDir()
	parent := filepath.Join(root, "parent")
	corpus := filepath.Join(root, "corpus")

	writeConfig(t, parent, "metadata:\n  language: swe\n")
	writeConfig(t, corpus, "parent: ../parent\nmetadata:\n  language: eng\n")

	cfg, err := LoadCorpusConfig(Dirs{Corpus: corpus})
	require.NoError(t, err)

	lang, _ := cfg.Get("metadata.language", nil)
	assert.Equal(t, "eng", lang)
}

func TestLoadCorpusConfig_CycleDetected(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")

	writeConfig(t, a, "parent: ../b\n")
	writeConfig(t, b, "parent: ../a\n")

	_, err := LoadCorpusConfig(Dirs{Corpus: a})
	require.Error(t, err)
	assert.True(t, corpuserr.IsKind(err, corpuserr.KindConfigCycle))
}

func TestLoadCorpusConfig_MissingParent(t *testing.T) {
	root := t.TempDir()
	corpus := filepath.Join(root, "corpus")
	writeConfig(t, corpus, "parent: ../does-not-exist\n")

	_, err := LoadCorpusConfig(Dirs{Corpus: corpus})
	require.Error(t, err)
	assert.True(t, corpuserr.IsKind(err, corpuserr.KindConfigNotFound))
}

func TestConfig_ImportExportInheritance(t *testing.T) {
	root := t.TempDir()
	corpus := filepath.Join(root, "corpus")
	writeConfig(t, corpus, `
import:
  encoding: utf-8
  xml_import:
    elements:
      - text
export:
  encoding: utf-8
`)
	cfg, err := LoadCorpusConfig(Dirs{Corpus: corpus})
	require.NoError(t, err)

	v, ok := cfg.Get("import.xml_import.encoding", nil)
	require.True(t, ok)
	assert.Equal(t, "utf-8", v)
}
