package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var createFileCmd = &cobra.Command{
	Use:   "create-file FILE...",
	Short: "Create empty source-file placeholders under the corpus's source tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		if err := os.MkdirAll(e.dirs.SourceDir(), 0o755); err != nil {
			return err
		}
		for _, name := range args {
			path := filepath.Join(e.dirs.SourceDir(), name)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				if os.IsExist(err) {
					return userErr(fmt.Errorf("source file %s already exists", name))
				}
				return err
			}
			f.Close()
		}
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the corpus's source files",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		files, err := e.dirs.SourceFiles()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createFileCmd, filesCmd)
}
