package main

import (
	"fmt"
	"path/filepath"

	"github.com/bittoy/corpuspipe/registry"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage engine.plugin entry points",
}

var pluginsInstallCmd = &cobra.Command{
	Use:   "install NAME PATH",
	Short: "Register a plugin shared object in plugins.toml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		path := manifestPath(e)
		manifest, err := registry.LoadPluginManifest(path)
		if err != nil {
			return err
		}
		for _, p := range manifest.Plugin {
			if p.Name == args[0] {
				return userErr(fmt.Errorf("plugin %q is already installed", args[0]))
			}
		}
		manifest.Plugin = append(manifest.Plugin, registry.PluginEntry{
			Name: args[0], Path: args[1], InstanceID: registry.NewInstanceID(),
		})
		return manifest.Save(path)
	},
}

var pluginsUninstallCmd = &cobra.Command{
	Use:   "uninstall NAME",
	Short: "Remove a plugin entry from plugins.toml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		path := manifestPath(e)
		manifest, err := registry.LoadPluginManifest(path)
		if err != nil {
			return err
		}
		kept := manifest.Plugin[:0]
		found := false
		for _, p := range manifest.Plugin {
			if p.Name == args[0] {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return userErr(fmt.Errorf("plugin %q is not installed", args[0]))
		}
		manifest.Plugin = kept
		return manifest.Save(path)
	},
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugin entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		manifest, err := registry.LoadPluginManifest(manifestPath(e))
		if err != nil {
			return err
		}
		for _, p := range manifest.Plugin {
			fmt.Printf("%s\t%s\n", p.Name, p.Path)
		}
		return nil
	},
}

func manifestPath(e *env) string {
	return filepath.Join(e.dirs.Data, "plugins.toml")
}

func init() {
	pluginsCmd.AddCommand(pluginsInstallCmd, pluginsUninstallCmd, pluginsListCmd)
	rootCmd.AddCommand(pluginsCmd)
}
