package pathconf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bittoy/corpuspipe/corpuserr"
	"go.yaml.in/yaml/v2"
)

// ConfigFileName is the corpus configuration file name.
const ConfigFileName = "config.yaml"

// tree is the dotted-path-keyed configuration tree backing Config. It mirrors
// the teacher's Configuration map[string]any (types/types.go) but nested,
// since YAML corpus config is a tree rather than a flat map.
type tree map[string]interface{}

// Config is the merged, frozen corpus configuration: the result of walking a
// corpus's parent chain and overlaying the corpus's own config.yaml on top.
// Once returned from LoadCorpusConfig it must be treated as read-only, per
// spec §3 "Lifecycle": "Configuration is loaded at startup and frozen before
// rule compilation."
type Config struct {
	raw tree
	// sources records, most specific last, the files this config was
	// merged from - used for diagnostics and for computing the scheduler's
	// content-key configuration-sensitivity subtree.
	sources []string
}

// LoadCorpusConfig reads dirs.Corpus/config.yaml and walks its `parent:`
// chain depth-first, later parents overriding earlier ones and the corpus's
// own config overriding all, per spec §4.A.
func LoadCorpusConfig(dirs Dirs) (*Config, error) {
	visited := map[string]bool{}
	merged := tree{}
	var sources []string

	var walk func(dir string) error
	walk = func(dir string) error {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if visited[abs] {
			return corpuserr.New(corpuserr.KindConfigCycle, abs, nil)
		}
		visited[abs] = true

		path := filepath.Join(abs, ConfigFileName)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return corpuserr.New(corpuserr.KindConfigNotFound, path, err)
		} else if err != nil {
			return err
		}

		var t tree
		if err := yaml.Unmarshal(data, &t); err != nil {
			return corpuserr.New(corpuserr.KindConfigInvalid, path, err)
		}

		if parentRaw, ok := t["parent"]; ok {
			parents := toStringSlice(parentRaw)
			for _, p := range parents {
				parentDir := p
				if !filepath.IsAbs(parentDir) {
					parentDir = filepath.Join(abs, parentDir)
				}
				if err := walk(parentDir); err != nil {
					return err
				}
			}
		}

		sources = append(sources, path)
		mergeInto(merged, t)
		return nil
	}

	if err := walk(dirs.Corpus); err != nil {
		return nil, err
	}

	c := &Config{raw: merged, sources: sources}
	c.applyInheritance("import")
	c.applyInheritance("export")
	return c, nil
}

// mergeInto deep-merges src over dst (src wins on scalar conflicts).
func mergeInto(dst, src tree) {
	for k, v := range src {
		if k == "parent" {
			continue
		}
		if sub, ok := v.(map[interface{}]interface{}); ok {
			srcSub := toTree(sub)
			if dstSub, ok := dst[k].(tree); ok {
				mergeInto(dstSub, srcSub)
				continue
			}
			dst[k] = srcSub
			continue
		}
		if sub, ok := v.(tree); ok {
			if dstSub, ok := dst[k].(tree); ok {
				mergeInto(dstSub, sub)
				continue
			}
			dst[k] = sub
			continue
		}
		dst[k] = v
	}
}

func toTree(m map[interface{}]interface{}) tree {
	t := tree{}
	for k, v := range m {
		key, _ := k.(string)
		if sub, ok := v.(map[interface{}]interface{}); ok {
			t[key] = toTree(sub)
		} else {
			t[key] = v
		}
	}
	return t
}

func toStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// applyInheritance copies keys under root (e.g. "import") into every
// root-prefixed module subtree (e.g. "import.xml_import") when the module
// subtree does not already define that key, per spec §3: "import and export
// sections additionally serve as inheritance roots."
func (c *Config) applyInheritance(root string) {
	rootTree, ok := c.raw[root].(tree)
	if !ok {
		return
	}
	for key, val := range rootTree {
		// keys that are themselves maps are module subtrees, not
		// inheritable scalars, unless they look like a module's own
		// section (handled by the caller explicitly naming modules is
		// out of scope here - we only push scalars/lists down).
		if _, isSub := val.(tree); isSub {
			continue
		}
		for modName, modVal := range rootTree {
			modTree, ok := modVal.(tree)
			if !ok || modName == key {
				continue
			}
			if _, exists := modTree[key]; !exists {
				modTree[key] = val
			}
		}
	}
}

// Get performs a dotted-path lookup, e.g. Get("wsd.sense_model", nil).
func (c *Config) Get(key string, def interface{}) (interface{}, bool) {
	parts := strings.Split(key, ".")
	var cur interface{} = c.raw
	for _, p := range parts {
		t, ok := cur.(tree)
		if !ok {
			return def, false
		}
		cur, ok = t[p]
		if !ok {
			return def, false
		}
	}
	return cur, true
}

// GetString is a convenience wrapper for Get returning a string value.
func (c *Config) GetString(key, def string) string {
	v, ok := c.Get(key, nil)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// Sources returns the config files this Config was merged from, most
// specific (the corpus's own config.yaml) last.
func (c *Config) Sources() []string {
	out := make([]string, len(c.sources))
	copy(out, c.sources)
	return out
}

// Raw exposes the merged tree for schema validation and snapshotting.
func (c *Config) Raw() map[string]interface{} {
	return map[string]interface{}(c.raw)
}
