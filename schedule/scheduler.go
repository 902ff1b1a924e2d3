package schedule

import (
	"container/heap"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner executes one job, producing its outputs. preload.FallbackRunner and
// the CLI's local runner both satisfy this interface.
type Runner interface {
	Run(ctx context.Context, job *Job) error
}

// jobHeap orders ready jobs highest-priority-first, breaking ties by ID for
// deterministic dispatch order in tests.
type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].ID < h[j].ID
}
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(*Job)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler runs a Graph's jobs across a bounded worker pool, skipping
// fresh jobs via the content-key Store and propagating failures to
// dependents as StatusTainted, per spec §4.E.
type Scheduler struct {
	graph       *Graph
	runner      Runner
	store       *Store
	bus         *EventBus
	runID       string
	concurrency int64

	mu        sync.Mutex
	cond      *sync.Cond
	ready     jobHeap
	remaining int

	ruleSemMu sync.Mutex
	ruleSem   map[string]*semaphore.Weighted
}

func NewScheduler(graph *Graph, runner Runner, store *Store, bus *EventBus, runID string, concurrency int) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	s := &Scheduler{
		graph:       graph,
		runner:      runner,
		store:       store,
		bus:         bus,
		runID:       runID,
		concurrency: int64(concurrency),
		remaining:   len(graph.Jobs),
		ruleSem:     map[string]*semaphore.Weighted{},
	}
	s.cond = sync.NewCond(&s.mu)
	for _, j := range graph.Leaves() {
		s.ready = append(s.ready, j)
	}
	heap.Init(&s.ready)
	return s
}

// KeyFunc computes a job's content key, injected so the scheduler itself
// stays agnostic of how bindings/config subtrees/model versions are
// gathered.
type KeyFunc func(*Job) ContentKey

// Run dispatches every job in the graph, honoring the concurrency cap, and
// returns the first job error encountered (if any); jobs already dispatched
// when an error occurs are allowed to finish.
func (s *Scheduler) Run(ctx context.Context, keyFn KeyFunc) error {
	sem := semaphore.NewWeighted(s.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for {
		s.mu.Lock()
		for s.ready.Len() == 0 && s.remaining > 0 {
			s.cond.Wait()
		}
		if s.remaining <= 0 {
			s.mu.Unlock()
			break
		}
		job := heap.Pop(&s.ready).(*Job)
		s.mu.Unlock()

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			s.mu.Lock()
			s.remaining--
			s.cond.Broadcast()
			s.mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(j *Job) {
			defer wg.Done()
			defer sem.Release(1)
			if err := s.execute(ctx, j, keyFn); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(job)
	}
	wg.Wait()
	return firstErr
}

// execute runs (or skips, if fresh) a single job and folds its completion
// back into the graph's dependency counts.
func (s *Scheduler) execute(ctx context.Context, job *Job, keyFn KeyFunc) error {
	job.Status = StatusRunning
	start := time.Now()

	key := keyFn(job)
	if s.isFresh(job, key) {
		job.Status = StatusFresh
		jobsSkipped.WithLabelValues(job.Rule.ID()).Inc()
	} else {
		err := s.runWithRuleCap(ctx, job)
		jobDuration.WithLabelValues(job.Rule.ID()).Observe(time.Since(start).Seconds())
		if err != nil {
			job.Status = StatusFailed
			job.Err = err
			jobsTotal.WithLabelValues(job.Rule.ID(), "failed").Inc()
		} else {
			job.Status = StatusDone
			jobsTotal.WithLabelValues(job.Rule.ID(), "done").Inc()
			for _, out := range job.Outputs {
				s.store.Set(out, key.Digest())
			}
		}
	}

	s.bus.Publish(JobEvent{
		RunID:  s.runID,
		RuleID: job.Rule.ID(),
		File:   job.File,
		Status: statusString(job.Status),
		Error:  errString(job.Err),
	})

	s.complete(job)
	if job.Status == StatusFailed {
		return job.Err
	}
	return nil
}

// runWithRuleCap runs job, first acquiring its rule's per-rule thread-count
// semaphore (if the rule declares max_threads), per spec §5 "Thread caps".
func (s *Scheduler) runWithRuleCap(ctx context.Context, job *Job) error {
	if job.MaxThreads <= 0 {
		return s.runner.Run(ctx, job)
	}
	sem := s.ruleSemaphore(job.Rule.ID(), job.MaxThreads)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	return s.runner.Run(ctx, job)
}

func (s *Scheduler) ruleSemaphore(ruleID string, maxThreads int) *semaphore.Weighted {
	s.ruleSemMu.Lock()
	defer s.ruleSemMu.Unlock()
	sem, ok := s.ruleSem[ruleID]
	if !ok {
		sem = semaphore.NewWeighted(int64(maxThreads))
		s.ruleSem[ruleID] = sem
	}
	return sem
}

// isFresh reports whether every one of a job's outputs is already
// up to date, per spec §4.E step 3 and §8 "Freshness is monotone".
func (s *Scheduler) isFresh(job *Job, key ContentKey) bool {
	if len(job.Outputs) == 0 {
		return false
	}
	for _, out := range job.Outputs {
		if !s.store.IsFresh(out, key, job.Inputs) {
			return false
		}
	}
	return true
}

// complete folds a finished job back into the graph: on success, every
// dependent with no other outstanding dependency becomes ready; on
// failure, every transitive dependent is tainted and skipped.
func (s *Scheduler) complete(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remaining--

	if job.Status == StatusFailed {
		s.taint(job)
	} else {
		for _, dep := range job.dependents {
			dep.waitCount--
			if dep.waitCount == 0 {
				heap.Push(&s.ready, dep)
			}
		}
	}
	s.cond.Broadcast()
}

// taint marks every not-yet-finished dependent of a failed job as
// StatusTainted and removes it from the remaining count, recursively.
// Caller must hold s.mu.
func (s *Scheduler) taint(job *Job) {
	for _, dep := range job.dependents {
		switch dep.Status {
		case StatusTainted, StatusDone, StatusFailed:
			continue
		}
		dep.Status = StatusTainted
		dep.Err = fmt.Errorf("dependency %s failed", job.ID)
		jobsTotal.WithLabelValues(dep.Rule.ID(), "tainted").Inc()
		s.remaining--
		s.taint(dep)
	}
}

func statusString(s Status) string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusTainted:
		return "tainted"
	case StatusRunning:
		return "running"
	default:
		return "pending"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AtomicWriteFile writes data to a temp file beside path and renames it
// into place, per spec §3 invariant "A rule's outputs are written
// atomically." Shared by adapters that produce annotation files directly.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
