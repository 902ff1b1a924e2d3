// Package schedule walks a requested set of output files backward to their
// producing rules, builds a file-level DAG, and runs it across a worker
// pool: component E of the pipeline engine.
package schedule

import (
	"github.com/bittoy/corpuspipe/compile"
)

// Status is a job's terminal or in-flight state.
type Status int

const (
	StatusPending Status = iota
	StatusFresh
	StatusRunning
	StatusDone
	StatusFailed
	StatusTainted // a dependency failed; this job is skipped
)

// Job is one node in the execution graph: a rule instantiated for a
// concrete set of output files, per spec §4.E steps 1-2.
type Job struct {
	ID       string
	Rule     *compile.Rule
	File     string // empty for corpus-level jobs
	Inputs   []string
	Outputs  []string
	Bindings map[string]interface{}

	Priority   int
	MaxThreads int

	Status Status
	Err    error

	deps       []*Job
	dependents []*Job
	waitCount  int // unresolved dependency count, decremented as deps finish
}

// Deps returns the jobs this job depends on, for diagnostics and tests.
func (j *Job) Deps() []*Job { return j.deps }

func (j *Job) String() string { return j.ID }
