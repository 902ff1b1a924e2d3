package resolve

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/bittoy/corpuspipe/registry"
)

// ConfigLookup is the subset of pathconf.Config the resolver needs; kept as
// an interface so tests can supply a bare map.
type ConfigLookup interface {
	Get(key string, def interface{}) (interface{}, bool)
}

// Resolver expands annotation references into concrete file paths, and
// answers "who produces this reference?" queries, memoised once per engine
// run, per spec §4.C.
type Resolver struct {
	dirs     pathconf.Dirs
	cfg      ConfigLookup
	reg      *registry.Registry
	arbiter  Arbiter
	classMu  sync.Mutex
	classes  map[string]string // class name -> bound reference literal
	producer sync.Map          // reference literal -> *registry.Implementation
	ambig    map[string]bool   // classes recorded as ambiguous this run
}

func NewResolver(dirs pathconf.Dirs, cfg ConfigLookup, reg *registry.Registry, arbiter Arbiter) *Resolver {
	r := &Resolver{
		dirs:    dirs,
		cfg:     cfg,
		reg:     reg,
		arbiter: arbiter,
		classes: map[string]string{},
		ambig:   map[string]bool{},
	}
	if v, ok := cfg.Get("classes", nil); ok {
		if m, ok := v.(map[string]interface{}); ok {
			for k, val := range m {
				if s, ok := val.(string); ok {
					r.classes[k] = s
				}
			}
		}
	}
	return r
}

// Resolve runs all four resolution stages from spec §4.C on literal, given a
// concrete wildcard binding set (may be nil if none apply yet) and a source
// file name (empty for corpus-level references).
//
// ok is false (with no error) when a configuration placeholder is undefined:
// per spec §4.C point 1, the rule is suppressed, not rejected as an error.
func (r *Resolver) Resolve(literal string, wildcards map[string]string, file string) (path string, ok bool, err error) {
	step1, ok := r.substituteConfig(literal)
	if !ok {
		return "", false, nil
	}
	step2, err := r.expandClasses(step1)
	if err != nil {
		return "", false, err
	}
	step3 := r.substituteWildcards(step2, wildcards)
	path, err = r.toFilePath(step3, file)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// substituteConfig implements spec §4.C stage 1.
func (r *Resolver) substituteConfig(literal string) (string, bool) {
	ref := NewReference(literal)
	out := literal
	for _, key := range ref.ConfigPlaceholders() {
		v, ok := r.cfg.Get(key, nil)
		if !ok {
			return "", false
		}
		out = strings.ReplaceAll(out, "["+key+"]", fmt.Sprintf("%v", v))
	}
	return out, true
}

// expandClasses implements spec §4.C stage 2.
func (r *Resolver) expandClasses(literal string) (string, error) {
	ref := NewReference(literal)
	out := literal
	for _, m := range ref.Classes() {
		token, class, attr := m[0], m[1], m[2]
		binding, err := r.bindClass(class)
		if err != nil {
			return "", err
		}
		replacement := binding
		if attr != "" {
			replacement = binding + ":" + attr
		}
		out = strings.ReplaceAll(out, token, replacement)
	}
	return out, nil
}

// bindClass resolves a class identifier to a concrete reference, consulting
// explicit config bindings first, then implicit inference from a single
// canonical producer's cls= tag, then interactive/persisted arbitration.
func (r *Resolver) bindClass(class string) (string, error) {
	r.classMu.Lock()
	defer r.classMu.Unlock()

	if bound, ok := r.classes[class]; ok {
		return bound, nil
	}

	var candidates []string
	for _, impl := range r.reg.All() {
		for _, p := range impl.Params {
			if p.Role == registry.RoleAnnotationOutput && p.ClassOf == class {
				candidates = append(candidates, impl.ID())
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", corpuserr.New(corpuserr.KindReferenceUnresolved, class, fmt.Errorf("no producer declares class %q", class))
	case 1:
		impl, _ := r.reg.Get(candidates[0])
		out := outputOf(impl)
		r.classes[class] = out
		return out, nil
	default:
		if r.arbiter != nil {
			chosen, err := r.arbiter.ChooseClassProducer(class, candidates)
			if err != nil {
				return "", err
			}
			impl, _ := r.reg.Get(chosen)
			out := outputOf(impl)
			r.classes[class] = out
			return out, nil
		}
		r.ambig[class] = true
		return "", corpuserr.New(corpuserr.KindClassAmbiguous, class,
			fmt.Errorf("candidates: %s", strings.Join(candidates, ", ")))
	}
}

func outputOf(impl *registry.Implementation) string {
	for _, p := range impl.Params {
		if p.Role == registry.RoleAnnotationOutput {
			return strings.Trim(p.Default, "<>")
		}
	}
	if len(impl.Outputs) > 0 {
		return impl.Outputs[0]
	}
	return impl.ID()
}

// substituteWildcards implements spec §4.C stage 3 (the unification itself
// happens in the rule compiler; the resolver just performs the textual
// substitution once bindings are known).
func (r *Resolver) substituteWildcards(literal string, wildcards map[string]string) string {
	out := literal
	for name, val := range wildcards {
		out = strings.ReplaceAll(out, "{"+name+"}", val)
	}
	return out
}

// toFilePath implements spec §4.C stage 4.
func (r *Resolver) toFilePath(literal string, file string) (string, error) {
	ref := NewReference(literal)
	base, attr, ok := ref.BaseAttr()
	if !ok {
		return "", corpuserr.New(corpuserr.KindReferenceUnresolved, literal, fmt.Errorf("not a well-formed reference"))
	}
	if file == "" {
		return r.dirs.WorkCorpusPath(base), nil
	}
	if attr == "" {
		return r.dirs.WorkSpanPath(file, base), nil
	}
	return r.dirs.WorkAttrPath(file, base, attr), nil
}

// ProducerOf answers "who produces this reference?", memoised once per
// engine run per spec §4.C closing paragraph.
//
// literal is run through the same config-placeholder and class-expansion
// stages as Resolve (spec §4.C stages 1-2) before comparison, since a rule
// input or a requested target is ordinarily still in class form (e.g.
// "<token>"), not the concrete literal a producer declares. Each
// candidate's declared output is expanded the same way, so a canonical
// producer (e.g. one whose output is "segment.token", tagged cls="token")
// is matched against the class reference that names it.
//
// ok is false (with no error) when a configuration placeholder in literal
// is undefined, per the same suppression rule as Resolve. err is non-nil
// only when class expansion itself fails (ClassAmbiguous/ReferenceUnresolved).
func (r *Resolver) ProducerOf(literal string) (*registry.Implementation, bool, error) {
	canonical, ok := r.substituteConfig(literal)
	if !ok {
		return nil, false, nil
	}
	canonical, err := r.expandClasses(canonical)
	if err != nil {
		return nil, false, err
	}

	if v, ok := r.producer.Load(canonical); ok {
		return v.(*registry.Implementation), true, nil
	}

	for _, impl := range r.reg.All() {
		for _, out := range declaredOutputs(impl) {
			candidate, ok := r.substituteConfig(out)
			if !ok {
				continue
			}
			candidate, err := r.expandClasses(candidate)
			if err != nil {
				// A candidate whose own declared output depends on a class
				// that is ambiguous or not yet bound is not a usable match
				// here; the rule that actually claims that class (if any)
				// will still be found via its own, resolvable, output.
				continue
			}
			if candidate == canonical {
				r.producer.Store(canonical, impl)
				return impl, true, nil
			}
		}
	}
	return nil, false, nil
}

// declaredOutputs lists every reference literal impl is declared to
// produce: its explicit Outputs (importers, script processors, per
// registry.validate's "importer declares no outputs" check) plus every
// RoleAnnotationOutput parameter's default (regular annotators/exporters),
// per spec §3 "a list of formal parameters ... annotation-output".
func declaredOutputs(impl *registry.Implementation) []string {
	out := append([]string(nil), impl.Outputs...)
	for _, p := range impl.Params {
		if p.Role == registry.RoleAnnotationOutput && p.Default != "" {
			out = append(out, p.Default)
		}
	}
	return out
}

// ConfigValue looks up a dotted config key, for callers (the scheduler's
// job-binding builder) that need the effective value behind a RoleConfig
// parameter binding.
func (r *Resolver) ConfigValue(key string) (interface{}, bool) {
	return r.cfg.Get(key, nil)
}

// Dirs exposes the directory identities this resolver maps references
// against, for callers that need to resolve non-annotation bindings
// (model/binary/marker/export-output/source-file paths).
func (r *Resolver) Dirs() pathconf.Dirs {
	return r.dirs
}

// Ambiguous reports the classes recorded as ambiguous during this run,
// surfaced by the CLI's `classes` verb for diagnostics.
func (r *Resolver) Ambiguous() []string {
	r.classMu.Lock()
	defer r.classMu.Unlock()
	out := make([]string, 0, len(r.ambig))
	for k := range r.ambig {
		out = append(out, k)
	}
	return out
}
