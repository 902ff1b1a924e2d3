package main

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [KEY]",
	Short: "Print the merged corpus configuration, or one key's value",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(true)
		if err != nil {
			return err
		}
		defer e.close()

		if len(args) == 0 {
			printConfigTree(e.cfg.Raw(), "")
			return nil
		}
		v, ok := e.cfg.Get(args[0], nil)
		if !ok {
			return userErr(fmt.Errorf("config key %q is not set", args[0]))
		}
		fmt.Println(v)
		return nil
	},
}

// printConfigTree walks a nested string-keyed map and prints each leaf as a
// dotted path. Nested maps may come back as an unexported named type (the
// config tree underlying pathconf.Config), so subtrees are detected via
// reflection rather than a type switch.
func printConfigTree(m map[string]interface{}, prefix string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if sub, ok := asStringMap(m[k]); ok {
			printConfigTree(sub, full)
			continue
		}
		fmt.Printf("%s = %v\n", full, m[k])
	}
}

func asStringMap(v interface{}) (map[string]interface{}, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	for _, k := range rv.MapKeys() {
		out[k.String()] = rv.MapIndex(k).Interface()
	}
	return out, true
}

var (
	flagModAnnotators bool
	flagModImporters  bool
	flagModExporters  bool
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List registered processors",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		var kinds []registry.Kind
		switch {
		case flagModAnnotators:
			kinds = []registry.Kind{registry.KindAnnotator}
		case flagModImporters:
			kinds = []registry.Kind{registry.KindImporter}
		case flagModExporters:
			kinds = []registry.Kind{registry.KindExporter}
		default:
			kinds = []registry.Kind{
				registry.KindImporter, registry.KindAnnotator, registry.KindExporter,
				registry.KindInstaller, registry.KindUninstaller, registry.KindModelBuilder,
			}
		}
		var ids []string
		for _, k := range kinds {
			for _, impl := range e.reg.ByKind(k) {
				ids = append(ids, fmt.Sprintf("%s\t%s\t%s", impl.ID(), impl.Kind, impl.Summary))
			}
		}
		sort.Strings(ids)
		for _, line := range ids {
			fmt.Println(line)
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available annotation presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		lib, err := resolve.LoadPresetLibrary(filepath.Join(e.dirs.Data, "presets.toml"))
		if err != nil {
			return err
		}
		names := make([]string, 0, len(lib))
		for name := range lib {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s = %v\n", name, lib[name])
		}
		return nil
	},
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List class bindings and any ambiguous classes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(true)
		if err != nil {
			return err
		}
		defer e.close()

		classes := map[string]bool{}
		for _, impl := range e.reg.All() {
			for _, p := range impl.Params {
				if p.Role == registry.RoleAnnotationOutput && p.ClassOf != "" {
					classes[p.ClassOf] = true
				}
			}
		}
		names := make([]string, 0, len(classes))
		for c := range classes {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			fmt.Println(c)
		}

		if amb := e.resolver.Ambiguous(); len(amb) > 0 {
			fmt.Println("ambiguous:")
			for _, c := range amb {
				fmt.Println(" ", c)
			}
		}
		return nil
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List languages restricted to by at least one registered processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		seen := map[string]bool{}
		var out []string
		for _, impl := range e.reg.All() {
			for _, lang := range impl.Language {
				if !seen[lang] {
					seen[lang] = true
					out = append(out, lang)
				}
			}
		}
		sort.Strings(out)
		for _, l := range out {
			fmt.Println(l)
		}
		return nil
	},
}

func init() {
	modulesCmd.Flags().BoolVar(&flagModAnnotators, "annotators", false, "list only annotators")
	modulesCmd.Flags().BoolVar(&flagModImporters, "importers", false, "list only importers")
	modulesCmd.Flags().BoolVar(&flagModExporters, "exporters", false, "list only exporters")
	rootCmd.AddCommand(configCmd, modulesCmd, presetsCmd, classesCmd, languagesCmd)
}
