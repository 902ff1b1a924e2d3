// Package compile turns registered processors into concrete rules: fully
// resolved inputs, outputs, parameter bindings, and priority, and resolves
// conflicts when several processors produce the same output, component D of
// the pipeline engine.
package compile

import (
	"github.com/bittoy/corpuspipe/registry"
)

// BindingKind distinguishes an immediate-value binding from a file-path
// binding in a compiled Rule, per spec §3 "Rule".
type BindingKind int

const (
	BindingFile BindingKind = iota
	BindingValue
)

// Binding is one formal parameter's compiled binding: either a reference
// literal/path template (BindingFile) or a config key/immediate scalar
// (BindingValue), per spec §3 "Rule": "parameter bindings (each formal
// parameter mapped to an immediate value or to a file path)." The scheduler
// resolves Literal to a concrete value per job at dispatch time (component
// E), since file-path bindings depend on the job's {file}.
type Binding struct {
	Param   string
	Role    registry.Role
	Kind    BindingKind
	Literal string
	// Type carries the formal parameter's nominal type through to the
	// scheduler's job-binding builder; a RoleConfig parameter declared
	// Type: "struct" gets its configuration subtree decoded via
	// registry.BindConfig rather than passed through as a raw value.
	Type string
}

// bindingKindFor classifies a parameter role as a file-path or
// immediate-value binding.
func bindingKindFor(role registry.Role) BindingKind {
	switch role {
	case registry.RoleAnnotationInput, registry.RoleAnnotationOutput,
		registry.RoleModel, registry.RoleBinary, registry.RoleSourceFile,
		registry.RoleExportOutput, registry.RoleMarker:
		return BindingFile
	default:
		return BindingValue
	}
}

// Rule is a compiled realisation of a processor, per spec §3 "Rule".
type Rule struct {
	// TargetID is "<module>:<function>", optionally suffixed for a
	// custom-annotation rule instance (spec §4.D).
	TargetID string

	Processor *registry.Implementation

	// Inputs/Outputs are reference literals (possibly still carrying
	// unresolved {wildcard} tokens for wildcard processors).
	Inputs  []string
	Outputs []string

	Bindings []Binding

	// PerFile is false for corpus-level rules (no {file} parameter).
	PerFile bool

	Order    *int
	Priority int

	PreloaderBinding map[string]interface{}

	// ConfigKeys is the set of configuration keys this rule transitively
	// depends on, used to build the scheduler's content-key sensitivity
	// subtree (spec §3 "Rule").
	ConfigKeys []string

	// Active is false when a language filter excludes this rule for the
	// corpus's (language, variety) pair (spec §4.D).
	Active bool

	// Suffix is non-empty for a custom_annotations-derived rule instance,
	// appended to every output so it does not collide with the base rule
	// (spec §4.D "Custom-annotation rules").
	Suffix string

	// HasWildcardPattern is true when this rule's outputs still contain
	// unresolved {wildcard} tokens, to be instantiated on demand by the
	// scheduler (spec §4.D "Wildcard processors").
	HasWildcardPattern bool
}

// ID returns the rule's unique identifier, including any custom suffix.
func (r *Rule) ID() string {
	if r.Suffix == "" {
		return r.TargetID
	}
	return r.TargetID + "#" + r.Suffix
}
