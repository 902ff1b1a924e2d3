package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/preload"
	"github.com/bittoy/corpuspipe/schedule"
	"github.com/spf13/cobra"
)

var (
	flagJobs            int
	flagSocket           string
	flagForcePreloader   bool
	flagIgnoreRegistryHash bool
)

var runCmd = &cobra.Command{
	Use:   "run [TARGETS...]",
	Short: "Run the pipeline for one or more requested targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return doRun(args)
	},
}

var runRuleCmd = &cobra.Command{
	Use:   "run-rule TARGET...",
	Short: "Run only the named rule targets, bypassing the default export set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return doRun(args)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, runRuleCmd} {
		c.Flags().IntVarP(&flagJobs, "jobs", "j", 1, "worker pool size")
		c.Flags().StringVar(&flagSocket, "socket", "", "preloader socket path to dispatch jobs through")
		c.Flags().BoolVar(&flagForcePreloader, "force-preloader", false, "wait for a busy preloader instead of falling back; other refusals fail the job")
		c.Flags().BoolVar(&flagIgnoreRegistryHash, "ignore-registry-hash", false, "exclude the registry hash from content keys for this run")
	}
	rootCmd.AddCommand(runCmd, runRuleCmd)
}

// doRun loads the engine environment, compiles rules, builds the job graph
// for the requested targets (or the corpus's default `export.annotations`
// when none are given), and runs the scheduler, per spec §4.E and §6 "run".
func doRun(targets []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	if len(targets) == 0 {
		if v, ok := e.cfg.Get("export.annotations", nil); ok {
			targets = toStrings(v)
		}
	}
	if len(targets) == 0 {
		return userErr(fmt.Errorf("no targets requested and export.annotations is empty"))
	}

	files, err := e.dirs.SourceFiles()
	if err != nil {
		return err
	}

	comp := e.compiler(nil)
	rules, err := comp.Compile(nil)
	if err != nil {
		return err
	}

	lookup := schedule.NewRuleLookup(rules)
	graph, err := schedule.BuildGraph(targets, files, e.resolver, lookup)
	if err != nil {
		return err
	}

	store, err := schedule.OpenStore(e.dirs)
	if err != nil {
		return err
	}

	bus, _ := connectEventBus(e)
	if bus != nil {
		defer bus.Close()
	}

	runner := buildRunner(e)
	sched := schedule.NewScheduler(graph, runner, store, bus, e.runID, flagJobs)

	registryHash := ""
	if !flagIgnoreRegistryHash {
		registryHash = schedule.RegistryHash(processorIDs(e))
	}
	keyFn := func(job *schedule.Job) schedule.ContentKey {
		return schedule.ContentKey{
			RuleID:        job.Rule.ID(),
			Bindings:      job.Bindings,
			InputStats:    schedule.StatInputs(job.Inputs),
			ConfigSubtree: configSubtree(e, job.Rule),
			RegistryHash:  registryHash,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := sched.Run(ctx, keyFn)
	if flushErr := store.Flush(); flushErr != nil && runErr == nil {
		runErr = flushErr
	}
	if runErr != nil {
		if corpuserr.IsKind(runErr, corpuserr.KindUserError) {
			return userErr(runErr)
		}
		return runErr
	}
	return nil
}

// buildRunner wires a local runner (direct processor invocation) optionally
// wrapped in preload.FallbackRunner when --socket is given, per spec §8
// "Preloader fallback".
func buildRunner(e *env) schedule.Runner {
	local := localRunner{}
	if flagSocket == "" {
		return local
	}
	return &preload.FallbackRunner{
		Client:         preload.NewClient(flagSocket),
		Local:          local,
		ForcePreloader: flagForcePreloader,
	}
}

// localRunner invokes a job's processor body directly, the fallback (or
// sole, absent a preloader) execution path.
type localRunner struct{}

func (r localRunner) Run(ctx context.Context, job *schedule.Job) error {
	if job.Rule.Processor.Run == nil {
		return corpuserr.New(corpuserr.KindRuleFailed, job.Rule.ID(), fmt.Errorf("processor has no implementation body"))
	}
	if err := job.Rule.Processor.Run(job.Bindings); err != nil {
		return corpuserr.New(corpuserr.KindRuleFailed, job.Rule.ID(), err)
	}
	if len(job.Outputs) == 0 {
		return nil
	}
	for _, out := range job.Outputs {
		if !fileExists(out) {
			return corpuserr.New(corpuserr.KindRuleFailed, job.Rule.ID(),
				fmt.Errorf("declared output %s was not produced", out))
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func processorIDs(e *env) []string {
	var ids []string
	for _, impl := range e.reg.All() {
		ids = append(ids, impl.ID())
	}
	return ids
}

func configSubtree(e *env, rule *compile.Rule) map[string]interface{} {
	out := map[string]interface{}{}
	for _, key := range rule.ConfigKeys {
		if v, ok := e.resolver.ConfigValue(key); ok {
			out[key] = v
		}
	}
	return out
}

func toStrings(v interface{}) []string {
	switch vv := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		return []string{vv}
	default:
		return nil
	}
}
