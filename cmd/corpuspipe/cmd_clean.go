package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	flagCleanAll    bool
	flagCleanExport bool
	flagCleanLogs   bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [--all] [--export] [--logs]",
	Short: "Remove generated corpus state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		logDir := filepath.Join(e.dirs.Data, "logs")
		all := flagCleanAll || (!flagCleanExport && !flagCleanLogs)
		var targets []string
		if all {
			targets = append(targets, e.dirs.Work, e.dirs.Export, logDir)
		} else {
			if flagCleanExport {
				targets = append(targets, e.dirs.Export)
			}
			if flagCleanLogs {
				targets = append(targets, logDir)
			}
		}

		// clean is always destructive per spec §7: "no confirmation, no
		// retries."
		for _, dir := range targets {
			if dir == "" {
				continue
			}
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&flagCleanAll, "all", false, "remove work, export, and log directories")
	cleanCmd.Flags().BoolVar(&flagCleanExport, "export", false, "remove only the export directory")
	cleanCmd.Flags().BoolVar(&flagCleanLogs, "logs", false, "remove only the log directory")
	rootCmd.AddCommand(cleanCmd)
}
