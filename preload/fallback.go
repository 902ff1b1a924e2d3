package preload

import (
	"context"
	"fmt"
	"time"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/schedule"
)

// FallbackRunner implements schedule.Runner, trying the preloader first for
// jobs whose rule declares a preloader binding, and falling back to a local
// Runner when the preloader refuses (busy, config mismatch, or unreachable),
// per spec §4.F "Dispatch" and §8 "Preloader fallback".
type FallbackRunner struct {
	Client         *Client
	Local          schedule.Runner
	ForcePreloader bool
}

// Run dispatches job to the preloader if its rule carries a preloader
// binding; otherwise (or on refusal, when ForcePreloader is false) it runs
// locally.
func (f *FallbackRunner) Run(ctx context.Context, job *schedule.Job) error {
	binding := job.Rule.PreloaderBinding
	if binding == nil {
		return f.Local.Run(ctx, job)
	}

	params, _ := binding["params"].([]string)
	fp := Fingerprint(bindingSubset(job.Bindings, params))

	req := NewRequest(job.Rule.TargetID, job.Bindings, job.File, fp)
	resp, err := f.Client.Dispatch(ctx, req)
	// With ForcePreloader set, a busy refusal is retried until a worker is
	// idle or ctx ends, instead of falling back to local execution.
	for err == nil && resp.Outcome == OutcomeRefusedBusy && f.ForcePreloader {
		select {
		case <-ctx.Done():
			return corpuserr.New(corpuserr.KindSocketError, job.Rule.TargetID, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
		resp, err = f.Client.Dispatch(ctx, req)
	}

	switch {
	case err != nil:
		// preloader unreachable: treated as a refusal per spec §4.F
		// "so the caller falls back to local execution."
		if f.ForcePreloader {
			return corpuserr.New(corpuserr.KindSocketError, job.Rule.TargetID, err)
		}
		return f.Local.Run(ctx, job)

	case resp.Outcome == OutcomeOK:
		return nil

	case resp.Outcome == OutcomeRefusedBusy, resp.Outcome == OutcomeConfigMismatch:
		if f.ForcePreloader {
			return corpuserr.New(corpuserr.KindSocketError, job.Rule.TargetID,
				fmt.Errorf("preloader unavailable (%s) and force_preloader is set", resp.Outcome))
		}
		return f.Local.Run(ctx, job)

	default:
		return corpuserr.New(corpuserr.KindRuleFailed, job.Rule.TargetID, fmt.Errorf("%s", resp.Error))
	}
}

func bindingSubset(bindings map[string]interface{}, keys []string) map[string]interface{} {
	if keys == nil {
		return bindings
	}
	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		out[k] = bindings[k]
	}
	return out
}
