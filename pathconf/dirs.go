// Package pathconf owns the engine's directory identities and the corpus
// configuration hierarchy: component A of the pipeline engine.
package pathconf

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvDataDir is the environment variable that overrides the configured data
// directory, per spec §6 "Environment variables".
const EnvDataDir = "ENGINE_DATADIR"

// Dirs holds the four canonical directory identities the engine operates
// over: data (models, default configs), corpus (the corpus under
// processing), work (intermediate artifacts), export (finished exports).
type Dirs struct {
	Data   string
	Corpus string
	Work   string
	Export string
}

// NewDirs resolves the four canonical directories for a given corpus root.
// The data directory defaults to dataDefault unless ENGINE_DATADIR is set.
func NewDirs(corpusRoot, dataDefault string) Dirs {
	data := dataDefault
	if v := os.Getenv(EnvDataDir); v != "" {
		data = v
	}
	return Dirs{
		Data:   data,
		Corpus: corpusRoot,
		Work:   filepath.Join(corpusRoot, "work"),
		Export: filepath.Join(corpusRoot, "export"),
	}
}

// EnsureExist creates the work, export, and data directories if absent.
func (d Dirs) EnsureExist() error {
	for _, dir := range []string{d.Data, d.Work, d.Export} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// BinPath returns the data directory's bin/ subtree, consulted after PATH
// for language tool binaries per spec §6.
func (d Dirs) BinPath() string {
	return filepath.Join(d.Data, "bin")
}

// SourceDir is the corpus's tree of source files, per spec §7 end-to-end
// scenario 1 ("source/doc.xml").
func (d Dirs) SourceDir() string {
	return filepath.Join(d.Corpus, "source")
}

// SourceFiles lists every source file name (without extension) under
// SourceDir, per spec §3 "Source file: an opaque name without extension."
func (d Dirs) SourceFiles() ([]string, error) {
	entries, err := os.ReadDir(d.SourceDir())
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return out, nil
}

// DecisionsFile is where resolver/compiler arbitration decisions persist,
// per spec §6 "Persisted state" and SPEC_FULL.md §C/§D.
func (d Dirs) DecisionsFile() string {
	return filepath.Join(d.Corpus, ".engine", "decisions.toml")
}

// ContentKeyFile is the persisted map from output path to content key.
func (d Dirs) ContentKeyFile() string {
	return filepath.Join(d.Work, ".content-keys")
}

// AutocompleteCacheFile is under the data directory per spec §6.
func (d Dirs) AutocompleteCacheFile() string {
	return filepath.Join(d.Data, "autocomplete-cache")
}

// WorkSpanPath returns work/<file>/<base>/_span.
func (d Dirs) WorkSpanPath(file, base string) string {
	return filepath.Join(d.Work, file, base, "_span")
}

// WorkAttrPath returns work/<file>/<base>/<attr>.
func (d Dirs) WorkAttrPath(file, base, attr string) string {
	return filepath.Join(d.Work, file, base, attr)
}

// WorkCorpusPath returns work/<ref> for corpus-level (no-<file>) data.
func (d Dirs) WorkCorpusPath(ref string) string {
	return filepath.Join(d.Work, ref)
}
