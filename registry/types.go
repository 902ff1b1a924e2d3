// Package registry discovers processors, indexes them by kind, stores their
// metadata, and tracks configuration-key usage across modules: component B
// of the pipeline engine.
package registry

// Kind is one of the six processor kinds the engine knows about.
type Kind string

const (
	KindImporter     Kind = "importer"
	KindAnnotator    Kind = "annotator"
	KindExporter     Kind = "exporter"
	KindInstaller    Kind = "installer"
	KindUninstaller  Kind = "uninstaller"
	KindModelBuilder Kind = "modelbuilder"
)

// Role tags a formal parameter with its pipeline purpose, mirroring the
// teacher's NodeType-as-string-enum convention (types/dsl.go) generalized
// from rule-chain node types to processor parameter roles.
type Role string

const (
	RoleAnnotationInput  Role = "annotation-input"
	RoleAnnotationOutput Role = "annotation-output"
	RoleConfig           Role = "config"
	RoleModel            Role = "model"
	RoleBinary           Role = "binary"
	RoleSourceFile       Role = "source-file"
	RoleCorpusID         Role = "corpus-identifier"
	RoleExportOutput     Role = "export-output-path"
	RoleMarker           Role = "marker"
	RoleScalar           Role = "scalar"
)

// Param is one formal parameter of a processor function.
type Param struct {
	Name    string
	Role    Role
	Default string // the reference literal or scalar default, e.g. "<token:word>"
	Type    string // nominal Go-ish type: "string", "[]byte", "int", ...
	// ClassOf names the class (e.g. "token") this output parameter
	// declares itself the canonical producer of, via a `cls=` tag on the
	// processor's output (spec §4.C point 2). Empty if this parameter
	// makes no class claim.
	ClassOf string
}

// ConfigDecl is one entry in a processor's declared config=[...] list.
type ConfigDecl struct {
	Name        string
	Default     interface{}
	Description string
	Type        string
	Choices     []string
	Min, Max    *float64
	Pattern     string
}

// Wildcard declares one {name} wildcard a processor's signature carries,
// along with the nominal type of value it binds to.
type Wildcard struct {
	Name string
	Type string
}

// Preloader describes a processor's preloader integration hooks, per spec
// §4.F.
type Preloader struct {
	// Target is this processor's own preload-hook function identifier, or
	// empty if this processor does not support preloading.
	Target string
	// Params is the subset of this processor's config parameters the
	// preload hook is bound to (preloader_params).
	Params []string
	// Shared indicates preloader_shared = true: one warm state shared
	// across all workers for this processor.
	Shared bool
	// Cleanup is the preloader_cleanup hook identifier, or empty.
	Cleanup string
}

// Processor is the metadata descriptor for one discovered function, per spec
// §3 "Processor (function metadata)". It is created at discovery time and
// read-only thereafter (spec §3 "Lifecycle").
type Processor struct {
	// Module and Function together form the stable identifier
	// "<module>:<function>".
	Module   string
	Function string

	Kind Kind

	Summary     string
	Description string

	Params []Param

	// Language restricts this processor to ISO 639-3 codes (+ optional
	// variety suffix), e.g. "swe", "eng-gb". Empty means unrestricted.
	Language []string

	// Order is the producer-conflict tie-breaker; lower wins. Nil means
	// "no declared order" (treated as +Inf by the compiler).
	Order *int

	// Priority is a scheduling hint; higher wins.
	Priority int

	Config []ConfigDecl

	Wildcards []Wildcard

	Preload Preloader

	// Outputs lists the reference literals this processor is declared to
	// produce; required for importers (spec §4.B).
	Outputs []string
}

// ID returns the stable "<module>:<function>" identifier.
func (p Processor) ID() string {
	return p.Module + ":" + p.Function
}

// Run is the function signature every processor implementation satisfies.
// Bindings maps each Param.Name to its resolved value: a file path for
// annotation-input/output params, a string/number/bool for config and
// scalar params, a marker sentinel path for marker params.
type Run func(bindings map[string]interface{}) error

// PreloadHook initializes a processor's warm state from its bound preloader
// parameters; the returned value is stashed as the worker's warm state.
type PreloadHook func(bindings map[string]interface{}) (interface{}, error)

// CleanupHook runs after each job with the current warm state and bindings;
// its return value replaces the warm state.
type CleanupHook func(state interface{}, bindings map[string]interface{}) (interface{}, error)

// Implementation pairs a Processor's metadata with its callable bodies. The
// bodies are out-of-core plumbing (spec §1); the registry only needs to
// route opaque calls to them.
type Implementation struct {
	Processor
	Run       Run
	OnPreload PreloadHook
	OnCleanup CleanupHook

	// ParamSpec is an optional pointer to a role-tagged parameter struct,
	// e.g.
	//
	//	&struct {
	//		Word string `role:"annotation-output" default:"<token:word>"`
	//	}{}
	//
	// Discovered Go plugins (registry.LoadPlugins) that declare their
	// signature this way rather than hand-assembling Processor.Params can
	// leave Params nil; Register introspects ParamSpec via
	// ParamsFromStruct and fills Params in, per spec §4.B point 2
	// ("Introspect its parameter list ...").
	ParamSpec interface{}
}
