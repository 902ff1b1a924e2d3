package registry

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/bittoy/corpuspipe/corpuserr"
)

// referencePattern matches the shape of a well-formed annotation reference
// literal used as a parameter Default, per spec §3 "Annotation reference":
// <class[:attr]>, {wildcard}, [config.placeholder], module.base[:module.attr].
var referencePattern = regexp.MustCompile(`^[<{\[]?[a-z][a-z0-9_.:\-]*[>}\]]?$`)

// Registry is the default registry for pipeline processors, grounded
// directly on the teacher's RuleComponentRegistry (engine/registry.go): an
// RWMutex-guarded map keyed by a stable identifier, with Register,
// Unregister, and lookup methods.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]*Implementation
	// configKeys tracks, for each declared config key, which processor ID
	// first declared it and with what default/type, to detect
	// incompatible redeclarations across modules (spec §4.B point 3).
	configKeys map[string]configOwner
}

type configOwner struct {
	ownerID string
	decl    ConfigDecl
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		procs:      map[string]*Implementation{},
		configKeys: map[string]configOwner{},
	}
}

// Register validates and adds a processor implementation. Processor
// discovery must be pure with respect to config: Register performs no
// pipeline work, only metadata validation (spec §4.B "Contracts").
func (r *Registry) Register(impl *Implementation) error {
	if len(impl.Params) == 0 && impl.ParamSpec != nil {
		impl.Params = ParamsFromStruct(impl.ParamSpec)
	}

	if err := validate(impl.Processor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := impl.ID()
	if _, exists := r.procs[id]; exists {
		return corpuserr.New(corpuserr.KindProcessorInvalid, id, fmt.Errorf("duplicate processor identifier"))
	}

	for _, decl := range impl.Config {
		if owner, ok := r.configKeys[decl.Name]; ok {
			if !configCompatible(owner.decl, decl) {
				return corpuserr.New(corpuserr.KindProcessorInvalid, decl.Name,
					fmt.Errorf("incompatible config redeclaration: %s already declared by %s", decl.Name, owner.ownerID))
			}
			continue
		}
		r.configKeys[decl.Name] = configOwner{ownerID: id, decl: decl}
	}

	r.procs[id] = impl
	return nil
}

// Unregister removes a processor by ID.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.procs[id]; !ok {
		return corpuserr.New(corpuserr.KindProcessorInvalid, id, fmt.Errorf("not found"))
	}
	delete(r.procs, id)
	return nil
}

// Get returns a processor implementation by its "<module>:<function>" ID.
func (r *Registry) Get(id string) (*Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.procs[id]
	return impl, ok
}

// All returns a snapshot of every registered implementation.
func (r *Registry) All() []*Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Implementation, 0, len(r.procs))
	for _, impl := range r.procs {
		out = append(out, impl)
	}
	return out
}

// ByKind returns every registered implementation of the given kind.
func (r *Registry) ByKind(kind Kind) []*Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Implementation
	for _, impl := range r.procs {
		if impl.Kind == kind {
			out = append(out, impl)
		}
	}
	return out
}

// ConfigDecls returns the full set of declared configuration keys across all
// registered processors, used to generate the corpus config JSON Schema
// (pathconf.Generate).
func (r *Registry) ConfigDecls() []ConfigDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConfigDecl, 0, len(r.configKeys))
	for _, owner := range r.configKeys {
		out = append(out, owner.decl)
	}
	return out
}

func configCompatible(a, b ConfigDecl) bool {
	return a.Type == b.Type
}

// validate applies the discovery-time rejections of spec §4.B: missing
// description, parameter defaults of unrecognised role, malformed output
// references, order declared without a conflict peer (checked later by the
// compiler, once all processors are known), cyclic preloader bindings
// (likewise deferred).
func validate(p Processor) error {
	if p.Summary == "" {
		return corpuserr.New(corpuserr.KindProcessorInvalid, p.ID(), fmt.Errorf("missing description"))
	}
	for _, param := range p.Params {
		switch param.Role {
		case RoleAnnotationInput, RoleAnnotationOutput, RoleConfig, RoleModel,
			RoleBinary, RoleSourceFile, RoleCorpusID, RoleExportOutput,
			RoleMarker, RoleScalar:
		default:
			return corpuserr.New(corpuserr.KindProcessorInvalid, p.ID(),
				fmt.Errorf("parameter %q has unrecognised role %q", param.Name, param.Role))
		}
		if param.Role == RoleAnnotationOutput && param.Default != "" && !referencePattern.MatchString(param.Default) {
			return corpuserr.New(corpuserr.KindProcessorInvalid, p.ID(),
				fmt.Errorf("parameter %q output reference %q is not well-formed", param.Name, param.Default))
		}
	}
	if p.Kind == KindImporter && len(p.Outputs) == 0 {
		return corpuserr.New(corpuserr.KindProcessorInvalid, p.ID(), fmt.Errorf("importer declares no outputs"))
	}
	for _, out := range p.Outputs {
		if !referencePattern.MatchString(out) {
			return corpuserr.New(corpuserr.KindProcessorInvalid, p.ID(),
				fmt.Errorf("output reference %q is not well-formed", out))
		}
	}
	return nil
}
