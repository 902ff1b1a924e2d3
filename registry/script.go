package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/dop251/goja"
)

// ScriptModulePrefix is the namespace user-local corpus scripts are
// registered under, per spec §4.B "custom.<file> namespace".
const ScriptModulePrefix = "custom"

// scriptDecl is the small header a .rule.js script file carries as a leading
// JS object literal assigned to `meta`, describing its processor metadata --
// the JS analogue of the Go-side Processor struct, since script processors
// have no Go signature to introspect.
type scriptDecl struct {
	Function    string   `json:"function"`
	Kind        string   `json:"kind"`
	Summary     string   `json:"summary"`
	Outputs     []string `json:"outputs"`
	AnnotatorOf []string `json:"inputs"`
}

// LoadScriptProcessors scans corpusDir for "*.rule.js" files and registers
// each as a goja-backed processor (an annotator unless its meta object names
// another kind) under the custom.<file>
// namespace, grounded on the teacher's embedded JS engine
// (utils/js/js_engine.go, GojaJsEngine) generalized from message transforms
// to annotation production.
func LoadScriptProcessors(corpusDir string, r *Registry) error {
	entries, err := os.ReadDir(corpusDir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rule.js") {
			continue
		}
		path := filepath.Join(corpusDir, e.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		impl, err := compileScriptProcessor(e.Name(), string(src))
		if err != nil {
			return err
		}
		if err := r.Register(impl); err != nil {
			return err
		}
	}
	return nil
}

func compileScriptProcessor(fileName, src string) (*Implementation, error) {
	base := strings.TrimSuffix(fileName, ".rule.js")
	vm := goja.New()
	if _, err := vm.RunString(src); err != nil {
		return nil, corpuserr.New(corpuserr.KindProcessorInvalid, base, err)
	}
	metaVal := vm.Get("meta")
	if metaVal == nil {
		return nil, corpuserr.New(corpuserr.KindProcessorInvalid, base,
			fmt.Errorf("script %s does not define a meta object", fileName))
	}
	var decl scriptDecl
	if err := vm.ExportTo(metaVal, &decl); err != nil {
		return nil, corpuserr.New(corpuserr.KindProcessorInvalid, base, err)
	}
	if decl.Function == "" {
		decl.Function = base
	}
	if decl.Summary == "" {
		return nil, corpuserr.New(corpuserr.KindProcessorInvalid, base, fmt.Errorf("missing description"))
	}

	kind := Kind(decl.Kind)
	if kind == "" {
		kind = KindAnnotator
	}

	params := make([]Param, 0, len(decl.AnnotatorOf)+len(decl.Outputs))
	for i, in := range decl.AnnotatorOf {
		params = append(params, Param{Name: fmt.Sprintf("in%d", i), Role: RoleAnnotationInput, Default: in})
	}
	for i, out := range decl.Outputs {
		params = append(params, Param{Name: fmt.Sprintf("out%d", i), Role: RoleAnnotationOutput, Default: out})
	}

	proc := Processor{
		Module:   ScriptModulePrefix + "." + base,
		Function: decl.Function,
		Kind:     kind,
		Summary:  decl.Summary,
		Params:   params,
		Outputs:  decl.Outputs,
	}

	run := func(bindings map[string]interface{}) error {
		jobVM := goja.New()
		if _, err := jobVM.RunString(src); err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(jobVM.Get("run"))
		if !ok {
			return fmt.Errorf("script %s does not define a run(bindings) function", fileName)
		}
		_, err := fn(goja.Undefined(), jobVM.ToValue(bindings))
		return err
	}

	return &Implementation{Processor: proc, Run: run}, nil
}
