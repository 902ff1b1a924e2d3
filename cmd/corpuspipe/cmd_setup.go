package main

import (
	"os"
	"path/filepath"

	"github.com/bittoy/corpuspipe/adapters"
	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/spf13/cobra"
)

var (
	flagSetupDir   string
	flagSetupReset bool
)

var setupCmd = &cobra.Command{
	Use:   "setup [--dir PATH] [--reset]",
	Short: "Create the data directory layout, or reset remembered arbitration decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		corpusRoot, err := filepath.Abs(flagCorpus)
		if err != nil {
			return err
		}
		dataDir := flagSetupDir
		if dataDir == "" {
			dataDir = filepath.Join(corpusRoot, ".engine", "data")
		}
		dirs := pathconf.NewDirs(corpusRoot, dataDir)
		if err := dirs.EnsureExist(); err != nil {
			return err
		}
		for _, sub := range []string{"bin", "models", "logs"} {
			if err := os.MkdirAll(filepath.Join(dirs.Data, sub), 0o755); err != nil {
				return err
			}
		}

		if flagSetupReset {
			decisionsPath := dirs.DecisionsFile()
			if err := os.Remove(decisionsPath); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		return nil
	},
}

var (
	flagBuildAll      bool
	flagBuildLanguage string
)

var buildModelsCmd = &cobra.Command{
	Use:   "build-models [--all] [--language LANG]",
	Short: "Run model-builder processors",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(true)
		if err != nil {
			return err
		}
		defer e.close()

		for _, impl := range e.reg.ByKind(registry.KindModelBuilder) {
			if !flagBuildAll && flagBuildLanguage != "" && !languageListContains(impl.Language, flagBuildLanguage) {
				continue
			}
			bindings, markerPath, err := installBindings(e, impl)
			if err != nil {
				return err
			}
			if impl.Run == nil {
				continue
			}
			if err := impl.Run(bindings); err != nil {
				return err
			}
			if markerPath != "" {
				if err := adapters.Marker(markerPath); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func languageListContains(langs []string, want string) bool {
	for _, l := range langs {
		if l == want {
			return true
		}
	}
	return len(langs) == 0
}

func init() {
	setupCmd.Flags().StringVar(&flagSetupDir, "dir", "", "data directory to create (defaults to <corpus>/.engine/data)")
	setupCmd.Flags().BoolVar(&flagSetupReset, "reset", false, "discard remembered ambiguity-resolution decisions")
	buildModelsCmd.Flags().BoolVar(&flagBuildAll, "all", false, "build every model, ignoring --language")
	buildModelsCmd.Flags().StringVar(&flagBuildLanguage, "language", "", "build only model-builders supporting this language (unrestricted ones included)")
	rootCmd.AddCommand(setupCmd, buildModelsCmd)
}
