package resolve

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Ellipsis is the "everything else" token recognised inside preset-expanded
// annotation lists, per spec §4.A "apply_presets".
const Ellipsis = "..."

// PresetLibrary maps a preset identifier (e.g. "SWE_DEFAULT.saldo") to the
// ordered list of annotation references it expands to.
type PresetLibrary map[string][]string

// ApplyPresets replaces every preset identifier occurring in list with its
// expansion, honours `not <ref>` exclusions, and resolves a bare Ellipsis
// entry to "every reference declared as an output by the registry that is
// not already present", per spec §4.A.
//
// allOutputs supplies the full universe of declared outputs, used only to
// resolve a literal Ellipsis entry; callers that never use "..." may pass
// nil.
func ApplyPresets(list []string, lib PresetLibrary, allOutputs []string) []string {
	var expanded []string
	var excluded []string

	for _, entry := range list {
		switch {
		case strings.HasPrefix(entry, "not "):
			excluded = append(excluded, strings.TrimSpace(strings.TrimPrefix(entry, "not ")))
		case entry == Ellipsis:
			// resolved after the rest of the list, once we know what's
			// already present.
		default:
			if exp, ok := lib[entry]; ok {
				expanded = append(expanded, exp...)
			} else {
				expanded = append(expanded, entry)
			}
		}
	}

	if containsEllipsis(list) {
		present := toSet(expanded)
		for _, out := range allOutputs {
			if !present[out] {
				expanded = append(expanded, out)
			}
		}
	}

	excludedSet := toSet(excluded)
	out := make([]string, 0, len(expanded))
	seen := map[string]bool{}
	for _, ref := range expanded {
		if excludedSet[ref] || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

// presetFile is the on-disk presets.toml shape: a preset table of library
// identifiers to their expansion lists, e.g. "[preset.SWE_DEFAULT]\nsaldo = [...]"
// loaded as dotted identifiers ("SWE_DEFAULT.saldo").
type presetFile struct {
	Preset map[string]map[string][]string `toml:"preset"`
}

// LoadPresetLibrary reads a presets.toml file (per spec §6 "presets" CLI
// verb) into a flat PresetLibrary keyed by "LIBRARY.name".
func LoadPresetLibrary(path string) (PresetLibrary, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return PresetLibrary{}, nil
	} else if err != nil {
		return nil, err
	}
	var pf presetFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	lib := PresetLibrary{}
	for libName, entries := range pf.Preset {
		for name, expansion := range entries {
			lib[libName+"."+name] = expansion
		}
	}
	return lib, nil
}

func containsEllipsis(list []string) bool {
	for _, e := range list {
		if e == Ellipsis {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		m[s] = true
	}
	return m
}
