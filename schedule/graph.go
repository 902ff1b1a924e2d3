package schedule

import (
	"fmt"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/resolve"
)

// RuleLookup finds the active compiled rule that targets a processor ID,
// keeping BuildGraph independent of how rules were compiled.
type RuleLookup struct {
	byTarget map[string]*compile.Rule
}

func NewRuleLookup(rules []*compile.Rule) *RuleLookup {
	l := &RuleLookup{byTarget: map[string]*compile.Rule{}}
	for _, r := range rules {
		if !r.Active {
			continue
		}
		l.byTarget[r.TargetID] = r
	}
	return l
}

// Graph is the file-level DAG of jobs needed to produce a set of requested
// output files, per spec §4.E steps 1-2.
type Graph struct {
	Jobs     []*Job
	byID     map[string]*Job
	byOutput map[string]*Job
}

// Leaves returns the jobs with no unresolved dependencies, the initial
// dispatch frontier for the scheduler.
func (g *Graph) Leaves() []*Job {
	var out []*Job
	for _, j := range g.Jobs {
		if len(j.deps) == 0 {
			out = append(out, j)
		}
	}
	return out
}

func (g *Graph) job(id string) (*Job, bool) {
	j, ok := g.byID[id]
	return j, ok
}

// BuildGraph walks the requested target references backward to their
// producing rules, instantiating one Job per (rule, file) pair for per-file
// rules and a single Job for corpus-level rules, then wires dependency
// edges from each job's inputs to the jobs that produce them, per spec
// §4.E steps 1-2.
func BuildGraph(targets []string, files []string, resolver *resolve.Resolver, rules *RuleLookup) (*Graph, error) {
	g := &Graph{byID: map[string]*Job{}, byOutput: map[string]*Job{}}
	for _, t := range targets {
		if err := g.resolveTarget(t, files, resolver, rules); err != nil {
			return nil, err
		}
	}
	g.wire()
	return g, nil
}

// resolveTarget ensures a job (or, for a per-file rule, one job per file)
// exists to produce literal, recursing into that rule's own inputs.
func (g *Graph) resolveTarget(literal string, files []string, resolver *resolve.Resolver, rules *RuleLookup) error {
	impl, ok, err := resolver.ProducerOf(literal)
	if err != nil {
		return err
	}
	if !ok {
		return corpuserr.New(corpuserr.KindNoProducer, literal, fmt.Errorf("no registered processor produces this reference"))
	}
	rule, ok := rules.byTarget[impl.ID()]
	if !ok {
		return corpuserr.New(corpuserr.KindNoProducer, literal, fmt.Errorf("processor %s has no active compiled rule", impl.ID()))
	}

	if !rule.PerFile {
		return g.materialize(rule, "", resolver, rules, files)
	}
	for _, f := range files {
		if err := g.materialize(rule, f, resolver, rules, files); err != nil {
			return err
		}
	}
	return nil
}

// materialize instantiates (or reuses) the job for rule run against file,
// resolving its inputs/outputs to concrete paths and recursing into each
// input's own producer.
func (g *Graph) materialize(rule *compile.Rule, file string, resolver *resolve.Resolver, rules *RuleLookup, files []string) error {
	id := rule.ID()
	if file != "" {
		id = id + "@" + file
	}
	if _, ok := g.byID[id]; ok {
		return nil // already built (or in progress)
	}

	bindings, err := buildBindings(rule, file, resolver)
	if err != nil {
		return err
	}
	job := &Job{
		ID: id, Rule: rule, File: file, Priority: rule.Priority, Status: StatusPending,
		Bindings: bindings, MaxThreads: maxThreadsFor(rule, resolver),
	}
	g.byID[id] = job // reserve before recursing, in case of accidental cycles

	for _, lit := range rule.Outputs {
		path, ok, err := resolver.Resolve(lit, nil, file)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		job.Outputs = append(job.Outputs, path)
		g.byOutput[path] = job
	}

	for _, lit := range rule.Inputs {
		path, ok, err := resolver.Resolve(lit, nil, file)
		if err != nil {
			return err
		}
		if !ok {
			// an undefined config placeholder suppresses this input, and
			// transitively the rules that would have produced it.
			continue
		}
		job.Inputs = append(job.Inputs, path)

		if _, ok := g.byOutput[path]; ok {
			continue // producer already materialized
		}
		if err := g.resolveTarget(lit, files, resolver, rules); err != nil {
			// an input with no registered producer is a corpus source
			// file (e.g. plain text import), not an engine error.
			if corpuserr.IsKind(err, corpuserr.KindNoProducer) {
				continue
			}
			return err
		}
	}

	g.Jobs = append(g.Jobs, job)
	return nil
}

// wire links each job to the jobs producing its inputs, and fills in
// waitCount, the dependency frontier gate used by the scheduler.
func (g *Graph) wire() {
	for _, j := range g.Jobs {
		for _, in := range j.Inputs {
			producer, ok := g.byOutput[in]
			if !ok || producer == j {
				continue
			}
			j.deps = append(j.deps, producer)
			producer.dependents = append(producer.dependents, j)
		}
		j.waitCount = len(j.deps)
	}
}
