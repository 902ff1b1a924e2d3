// Command corpuspipe is the CLI front-end over the pipeline engine core: the
// processor registry (B), reference resolver (C), rule compiler (D), DAG
// scheduler (E), and preloader (F). Every verb in spec §6 is implemented
// here; the verbs themselves are ambient plumbing, grounded on the
// theRebelliousNerd-codenerd cobra command-tree convention
// (cmd/nerd/main.go): a persistent root command, package-level flag
// variables, and one file per command family.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes per spec §6: "0 on success, 1 on user error, 2 on internal
// error."
const (
	ExitOK          = 0
	ExitUserError   = 1
	ExitInternalErr = 2
)

var (
	flagCorpus  string
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "corpuspipe",
	Short: "Corpus-processing pipeline engine",
	Long: `corpuspipe turns a declarative description of a corpus (source
files, desired annotations, export formats) plus a registry of processors
into an executed dependency graph of file-producing jobs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCorpus, "corpus", ".", "corpus root directory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "datadir", "", "override the data directory (or set ENGINE_DATADIR)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := ExitInternalErr
		if ue, ok := err.(userError); ok {
			_ = ue
			code = ExitUserError
		}
		fmt.Fprintln(os.Stderr, "corpuspipe:", err)
		os.Exit(code)
	}
}

// userError marks an error as user-facing (exit code 1) rather than
// internal (exit code 2), per spec §7 "Propagation": "user-facing errors
// print a short message and suppress traceback; internal errors ... write a
// detailed trace to the log directory."
type userError struct{ err error }

func (u userError) Error() string { return u.err.Error() }
func (u userError) Unwrap() error { return u.err }

func userErr(err error) error {
	if err == nil {
		return nil
	}
	return userError{err}
}
