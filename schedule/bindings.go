package schedule

import (
	"path/filepath"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
)

// buildBindings resolves a rule's compiled Binding templates into the
// concrete map a processor's Run receives, per registry.Run's contract:
// "Bindings maps each Param.Name to its resolved value: a file path for
// annotation-input/output params, a string/number/bool for config and
// scalar params, a marker sentinel path for marker params."
func buildBindings(rule *compile.Rule, file string, resolver *resolve.Resolver) (map[string]interface{}, error) {
	dirs := resolver.Dirs()
	out := make(map[string]interface{}, len(rule.Bindings))

	for _, b := range rule.Bindings {
		switch b.Role {
		case registry.RoleAnnotationInput, registry.RoleAnnotationOutput:
			path, ok, err := resolver.Resolve(b.Literal, nil, file)
			if err != nil {
				return nil, err
			}
			if ok {
				out[b.Param] = path
			}
		case registry.RoleConfig:
			v, ok := resolver.ConfigValue(b.Literal)
			if !ok {
				continue
			}
			if b.Type == "struct" {
				// The parameter wants its whole configuration subtree
				// decoded into a struct/map rather than the raw scalar
				// value, per spec §4.B point 2 parameter introspection.
				decoded := map[string]interface{}{}
				if err := registry.BindConfig(v, &decoded); err != nil {
					return nil, err
				}
				out[b.Param] = decoded
			} else {
				out[b.Param] = v
			}
		case registry.RoleSourceFile:
			out[b.Param] = filepath.Join(dirs.SourceDir(), file)
		case registry.RoleModel:
			out[b.Param] = filepath.Join(dirs.Data, "models", b.Literal)
		case registry.RoleBinary:
			out[b.Param] = filepath.Join(dirs.BinPath(), b.Literal)
		case registry.RoleExportOutput:
			name := b.Literal
			if file != "" {
				name = file + "/" + name
			}
			out[b.Param] = filepath.Join(dirs.Export, name)
		case registry.RoleMarker:
			out[b.Param] = filepath.Join(dirs.Corpus, ".engine", "installed", b.Literal)
		case registry.RoleCorpusID:
			out[b.Param] = filepath.Base(dirs.Corpus)
		default: // RoleScalar
			out[b.Param] = b.Literal
		}
	}
	return out, nil
}

// maxThreadsFor looks up a rule's per-rule concurrency cap from its
// processor module's "<module>.max_threads" config key, per spec §5
// "Thread caps": "A rule may declare max_threads=N in its configuration
// sensitivity." Zero means uncapped (the global worker pool cardinality
// still applies).
func maxThreadsFor(rule *compile.Rule, resolver *resolve.Resolver) int {
	v, ok := resolver.ConfigValue(rule.Processor.Module + ".max_threads")
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
