package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bittoy/corpuspipe/registry"
	"github.com/spf13/cobra"
)

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete",
	Short: "Refresh and print the completion cache of known references and processor IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		seen := map[string]bool{}
		var entries []string
		for _, impl := range e.reg.All() {
			if !seen[impl.ID()] {
				seen[impl.ID()] = true
				entries = append(entries, impl.ID())
			}
			for _, out := range impl.Outputs {
				if !seen[out] {
					seen[out] = true
					entries = append(entries, out)
				}
			}
			for _, p := range impl.Params {
				if p.Role == registry.RoleAnnotationOutput && p.Default != "" && !seen[p.Default] {
					seen[p.Default] = true
					entries = append(entries, p.Default)
				}
			}
		}
		sort.Strings(entries)

		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(e.dirs.AutocompleteCacheFile(), b, 0o644); err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Println(entry)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autocompleteCmd)
}
