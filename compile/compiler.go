package compile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CustomAnnotation is one entry of the corpus config's custom_annotations
// list: a processor ID plus the parameter overrides and suffix for the
// extra rule instance it produces (spec §4.D "Custom-annotation rules").
type CustomAnnotation struct {
	Processor string
	Suffix    string
	Params    map[string]string
}

// Compiler materialises one Rule per processor (or per
// (processor, custom_rule_binding) pair), groups rules by normalised output
// set, and orders each conflict group, per spec §4.D.
type Compiler struct {
	reg      *registry.Registry
	resolver *resolve.Resolver
	arbiter  resolve.Arbiter
	language string
	variety  string
}

func NewCompiler(reg *registry.Registry, resolver *resolve.Resolver, arbiter resolve.Arbiter, language, variety string) *Compiler {
	return &Compiler{reg: reg, resolver: resolver, arbiter: arbiter, language: language, variety: variety}
}

// Compile builds one rule per registered processor, plus one extra rule per
// custom-annotation binding, then resolves conflicts.
func (c *Compiler) Compile(customs []CustomAnnotation) ([]*Rule, error) {
	var rules []*Rule

	for _, impl := range c.reg.All() {
		rule, err := c.compileOne(impl, "", nil)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	for _, ca := range customs {
		impl, ok := c.reg.Get(ca.Processor)
		if !ok {
			return nil, corpuserr.New(corpuserr.KindNoProducer, ca.Processor, fmt.Errorf("custom_annotations references unknown processor"))
		}
		rule, err := c.compileOne(impl, ca.Suffix, ca.Params)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	c.applyLanguageFilter(rules)

	if err := c.resolveConflicts(rules); err != nil {
		return nil, err
	}

	return rules, nil
}

func (c *Compiler) compileOne(impl *registry.Implementation, suffix string, overrides map[string]string) (*Rule, error) {
	rule := &Rule{
		TargetID:  impl.ID(),
		Processor: impl,
		Order:     impl.Order,
		Priority:  impl.Priority,
		Suffix:    suffix,
		Active:    true,
	}

	for _, p := range impl.Params {
		lit := p.Default
		if overrides != nil {
			if ov, ok := overrides[p.Name]; ok {
				lit = ov
			}
		}
		if lit == "" {
			continue
		}

		bindingLiteral := lit
		switch p.Role {
		case registry.RoleAnnotationInput:
			rule.Inputs = append(rule.Inputs, lit)
		case registry.RoleAnnotationOutput:
			out := lit
			if suffix != "" {
				out = out + "--" + suffix
			}
			rule.Outputs = append(rule.Outputs, out)
			bindingLiteral = out
			ref := resolve.NewReference(out)
			if len(ref.Wildcards()) > 0 {
				rule.HasWildcardPattern = true
			}
		case registry.RoleConfig:
			rule.ConfigKeys = append(rule.ConfigKeys, lit)
		}

		rule.Bindings = append(rule.Bindings, Binding{
			Param:   p.Name,
			Role:    p.Role,
			Kind:    bindingKindFor(p.Role),
			Literal: bindingLiteral,
			Type:    p.Type,
		})
	}

	for _, cd := range impl.Config {
		rule.ConfigKeys = append(rule.ConfigKeys, cd.Name)
	}

	// A rule is per-file unless its processor kind works at corpus level:
	// exporters, installers, uninstallers and model builders. Only the kind
	// is consulted; the parameters are not inspected.
	rule.PerFile = hasSourceFileParam(impl)

	if impl.Preload.Target != "" {
		rule.PreloaderBinding = map[string]interface{}{
			"target": impl.Preload.Target,
			"params": impl.Preload.Params,
			"shared": impl.Preload.Shared,
		}
	}

	return rule, nil
}

func hasSourceFileParam(impl *registry.Implementation) bool {
	if impl.Kind == registry.KindExporter || impl.Kind == registry.KindInstaller || impl.Kind == registry.KindUninstaller || impl.Kind == registry.KindModelBuilder {
		return false
	}
	return true
}

// applyLanguageFilter marks rules inactive when their declared languages
// exclude the corpus's (language, variety) pair, per spec §4.D.
func (c *Compiler) applyLanguageFilter(rules []*Rule) {
	if c.language == "" {
		return
	}
	for _, r := range rules {
		langs := r.Processor.Language
		if len(langs) == 0 {
			continue
		}
		if !c.languageMatches(langs) {
			r.Active = false
		}
	}
}

// languageMatches evaluates, per declared language entry, an expr-lang
// predicate comparing the corpus's (language, variety) against the entry,
// grounded on the teacher's ExprFilterNode (components/transform/expr_filter_node.go).
func (c *Compiler) languageMatches(declared []string) bool {
	program, err := languageMatchProgram()
	if err != nil {
		return false
	}
	for _, d := range declared {
		lang, want := splitLanguageVariety(d)
		out, err := expr.Run(program, map[string]interface{}{
			"language": c.language, "variety": c.variety, "lang": lang, "want": want,
		})
		if err == nil {
			if match, ok := out.(bool); ok && match {
				return true
			}
		}
	}
	return false
}

// languageMatchProgram compiles the (language, variety) predicate once and
// caches it: the predicate's shape never depends on the declared entry being
// tested, only the per-entry Run bindings do, so recompiling it inside
// languageMatches's per-entry loop was pure waste.
var (
	languageMatchProgramOnce sync.Once
	languageMatchProgramVal  *vm.Program
	languageMatchProgramErr  error
)

func languageMatchProgram() (*vm.Program, error) {
	languageMatchProgramOnce.Do(func() {
		languageMatchProgramVal, languageMatchProgramErr = expr.Compile(
			`language == lang && (variety == "" || variety == want)`,
			expr.Env(map[string]interface{}{"language": "", "variety": "", "lang": "", "want": ""}),
		)
	})
	return languageMatchProgramVal, languageMatchProgramErr
}

func splitLanguageVariety(d string) (lang, variety string) {
	for i, r := range d {
		if r == '-' {
			return d[:i], d[i+1:]
		}
	}
	return d, ""
}

// resolveConflicts groups rules by normalised output set, sorts each group
// ascending by Order, and fails equal-order conflicts, per spec §4.D.
func (c *Compiler) resolveConflicts(rules []*Rule) error {
	groups := map[string][]*Rule{}
	for _, r := range rules {
		if !r.Active || len(r.Outputs) == 0 {
			continue
		}
		key := outputKey(r.Outputs)
		groups[key] = append(groups[key], r)
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return orderValue(group[i].Order) < orderValue(group[j].Order)
		})

		for i := 0; i+1 < len(group); i++ {
			if orderValue(group[i].Order) == orderValue(group[i+1].Order) {
				ids := ruleIDs(group)
				if c.arbiter != nil {
					chosen, err := c.arbiter.ChooseConflictOrder(key, ids)
					if err != nil {
						return corpuserr.New(corpuserr.KindProducerConflict, key, err)
					}
					reorder(group, chosen)
					break
				}
				return corpuserr.New(corpuserr.KindProducerConflict, key,
					fmt.Errorf("rules %v have equal order", ids))
			}
		}
	}
	return nil
}

func outputKey(outputs []string) string {
	sorted := append([]string(nil), outputs...)
	sort.Strings(sorted)
	key := ""
	for _, o := range sorted {
		key += o + ";"
	}
	return key
}

func orderValue(o *int) int {
	if o == nil {
		return int(^uint(0) >> 1) // +Inf per spec §3 "Rule"
	}
	return *o
}

func ruleIDs(rules []*Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID()
	}
	return out
}

func reorder(group []*Rule, chosenIDs []string) {
	byID := map[string]*Rule{}
	for _, r := range group {
		byID[r.ID()] = r
	}
	for i, id := range chosenIDs {
		if r, ok := byID[id]; ok && i < len(group) {
			group[i] = r
		}
	}
}

// ConflictGroups returns, for diagnostics, the groups of rules sharing a
// normalised output set, ordered preferred-first.
func ConflictGroups(rules []*Rule) map[string][]*Rule {
	groups := map[string][]*Rule{}
	for _, r := range rules {
		if !r.Active || len(r.Outputs) == 0 {
			continue
		}
		key := outputKey(r.Outputs)
		groups[key] = append(groups[key], r)
	}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return orderValue(group[i].Order) < orderValue(group[j].Order)
		})
	}
	return groups
}
