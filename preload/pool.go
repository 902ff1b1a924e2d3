package preload

import (
	"sync"

	"github.com/bittoy/corpuspipe/registry"
)

// worker is one pre-initialised handler for a single preloaded processor.
// Its warm state was produced by the processor's preload hook and is
// replaced, in place, by every cleanup hook invocation (spec §4.F "Cleanup
// hook").
type worker struct {
	mu    sync.Mutex
	busy  bool
	state interface{}
}

// procPool is the set of workers preloaded for one processor, plus the
// fingerprint every dispatch to it must match.
type procPool struct {
	impl        *registry.Implementation
	fingerprint string
	shared      bool

	mu      sync.Mutex
	workers []*worker
	// sharedState backs every worker when impl.Preload.Shared is true,
	// per spec §4.F: "one warm state is shared across all workers of
	// that processor (guarded appropriately)."
	sharedState interface{}
	sharedMu    sync.Mutex
}

// newProcPool spawns P workers for impl, calling its preload hook once per
// worker (or once total, for a shared processor).
func newProcPool(impl *registry.Implementation, bindings map[string]interface{}, fingerprint string, n int) (*procPool, error) {
	pp := &procPool{
		impl:        impl,
		fingerprint: fingerprint,
		shared:      impl.Preload.Shared,
	}

	if pp.shared {
		state, err := impl.OnPreload(bindings)
		if err != nil {
			return nil, err
		}
		pp.sharedState = state
	}

	for i := 0; i < n; i++ {
		w := &worker{}
		if !pp.shared {
			state, err := impl.OnPreload(bindings)
			if err != nil {
				return nil, err
			}
			w.state = state
		}
		pp.workers = append(pp.workers, w)
	}
	return pp, nil
}

// acquire returns an idle worker, or nil if every worker for this processor
// is currently busy, per spec §4.F "Dispatch": "if none is idle, the
// request is refused immediately."
func (pp *procPool) acquire() *worker {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	for _, w := range pp.workers {
		w.mu.Lock()
		if !w.busy {
			w.busy = true
			w.mu.Unlock()
			return w
		}
		w.mu.Unlock()
	}
	return nil
}

func (pp *procPool) release(w *worker) {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// run executes one job on the given worker's warm state, then runs the
// processor's cleanup hook (if declared) and replaces the warm state with
// its result, per spec §4.F "Cleanup hook".
func (pp *procPool) run(w *worker, bindings map[string]interface{}) error {
	state := pp.currentState(w)
	bindings = withState(bindings, state)

	runErr := pp.impl.Run(bindings)

	if pp.impl.OnCleanup != nil {
		newState, cleanErr := pp.impl.OnCleanup(state, bindings)
		if cleanErr == nil {
			pp.setState(w, newState)
		}
	}
	return runErr
}

func (pp *procPool) currentState(w *worker) interface{} {
	if pp.shared {
		pp.sharedMu.Lock()
		defer pp.sharedMu.Unlock()
		return pp.sharedState
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (pp *procPool) setState(w *worker, state interface{}) {
	if pp.shared {
		pp.sharedMu.Lock()
		pp.sharedState = state
		pp.sharedMu.Unlock()
		return
	}
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// withState injects the worker's warm state into a copy of bindings under
// the "__preload_state" key, the convention processor Run bodies consult to
// find their preloaded model instead of reinitializing it.
func withState(bindings map[string]interface{}, state interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(bindings)+1)
	for k, v := range bindings {
		out[k] = v
	}
	out["__preload_state"] = state
	return out
}
