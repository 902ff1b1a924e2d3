package main

import (
	"path/filepath"

	"github.com/bittoy/corpuspipe/adapters"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [TARGETS...]",
	Short: "Run installer processors, writing marker sentinels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMarkerProcessors(args, registry.KindInstaller, false)
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [TARGETS...]",
	Short: "Run uninstaller processors, removing marker sentinels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMarkerProcessors(args, registry.KindUninstaller, true)
	},
}

func init() {
	rootCmd.AddCommand(installCmd, uninstallCmd)
}

// runMarkerProcessors invokes every processor of the given kind (optionally
// restricted to the named targets), toggling its marker sentinel on success,
// per spec §6 "Marker files for (un)installers: zero-length sentinel at a
// declared path."
func runMarkerProcessors(targets []string, kind registry.Kind, remove bool) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	wanted := toSet(targets)
	for _, impl := range e.reg.ByKind(kind) {
		if len(wanted) > 0 && !wanted[impl.ID()] {
			continue
		}
		bindings, markerPath, err := installBindings(e, impl)
		if err != nil {
			return err
		}
		if impl.Run != nil {
			if err := impl.Run(bindings); err != nil {
				return err
			}
		}
		if markerPath == "" {
			continue
		}
		if remove {
			if err := adapters.RemoveMarker(markerPath); err != nil {
				return err
			}
		} else if err := adapters.Marker(markerPath); err != nil {
			return err
		}
	}
	return nil
}

// installBindings resolves an (un)installer's declared parameters the same
// way the scheduler resolves a rule's bindings, returning the first marker
// path found (an (un)installer declares exactly one per spec §4.B).
func installBindings(e *env, impl *registry.Implementation) (map[string]interface{}, string, error) {
	bindings := map[string]interface{}{}
	markerPath := ""
	for _, p := range impl.Params {
		switch p.Role {
		case registry.RoleMarker:
			path := filepath.Join(e.dirs.Corpus, ".engine", "installed", p.Default)
			if markerPath == "" {
				markerPath = path
			}
			bindings[p.Name] = path
		case registry.RoleConfig:
			if v, ok := e.resolver.ConfigValue(p.Default); ok {
				bindings[p.Name] = v
			}
		case registry.RoleBinary:
			bindings[p.Name] = filepath.Join(e.dirs.BinPath(), p.Default)
		case registry.RoleModel:
			bindings[p.Name] = filepath.Join(e.dirs.Data, "models", p.Default)
		default:
			bindings[p.Name] = p.Default
		}
	}
	return bindings, markerPath, nil
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		m[s] = true
	}
	return m
}
