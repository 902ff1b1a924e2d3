package preload

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	called bool
	err    error
}

func (s *stubRunner) Run(ctx context.Context, job *schedule.Job) error {
	s.called = true
	return s.err
}

func jobWithPreloaderBinding(targetID string, params []string) *schedule.Job {
	rule := &compile.Rule{
		TargetID: targetID,
		PreloaderBinding: map[string]interface{}{
			"target": targetID,
			"params": params,
		},
	}
	return &schedule.Job{ID: targetID, Rule: rule, File: "doc1", Bindings: map[string]interface{}{"model": "A"}}
}

func TestFallbackRunnerUsesPreloaderWhenFresh(t *testing.T) {
	var calls int
	impl := &registry.Implementation{
		Processor: registry.Processor{Module: "segment", Function: "token", Kind: registry.KindAnnotator, Summary: "Tokeniser."},
		Run: func(bindings map[string]interface{}) error {
			calls++
			return nil
		},
		OnPreload: func(bindings map[string]interface{}) (interface{}, error) { return nil, nil },
	}
	_, sockPath := startTestServer(t, impl, 1)

	local := &stubRunner{}
	fr := &FallbackRunner{Client: NewClient(sockPath), Local: local}

	job := jobWithPreloaderBinding(impl.ID(), []string{"model"})
	err := fr.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, local.called, "preloader served the job; local runner must not also run it")
}

func TestFallbackRunnerFallsBackOnMismatch(t *testing.T) {
	var calls int
	impl := &registry.Implementation{
		Processor: registry.Processor{Module: "segment", Function: "token", Kind: registry.KindAnnotator, Summary: "Tokeniser."},
		Run: func(bindings map[string]interface{}) error {
			calls++
			return nil
		},
		OnPreload: func(bindings map[string]interface{}) (interface{}, error) { return nil, nil },
	}
	_, sockPath := startTestServer(t, impl, 1)
	// server preloaded with model "A"; request binds "B" below.

	local := &stubRunner{}
	fr := &FallbackRunner{Client: NewClient(sockPath), Local: local}

	job := jobWithPreloaderBinding(impl.ID(), []string{"model"})
	job.Bindings = map[string]interface{}{"model": "B"}
	err := fr.Run(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, local.called)
	assert.Equal(t, 0, calls, "preloader must not have run the job body")
}

func TestFallbackRunnerForcePreloaderFailsOnMismatch(t *testing.T) {
	impl := &registry.Implementation{
		Processor: registry.Processor{Module: "segment", Function: "token", Kind: registry.KindAnnotator, Summary: "Tokeniser."},
		Run:       func(bindings map[string]interface{}) error { return nil },
		OnPreload: func(bindings map[string]interface{}) (interface{}, error) { return nil, nil },
	}
	_, sockPath := startTestServer(t, impl, 1)

	local := &stubRunner{}
	fr := &FallbackRunner{Client: NewClient(sockPath), Local: local, ForcePreloader: true}

	job := jobWithPreloaderBinding(impl.ID(), []string{"model"})
	job.Bindings = map[string]interface{}{"model": "B"}
	err := fr.Run(context.Background(), job)
	require.Error(t, err)
	assert.False(t, local.called)
}

func TestFallbackRunnerNoBindingUsesLocalDirectly(t *testing.T) {
	local := &stubRunner{}
	fr := &FallbackRunner{Client: NewClient(filepath.Join(t.TempDir(), "nonexistent.sock")), Local: local}

	job := &schedule.Job{ID: "x", Rule: &compile.Rule{TargetID: "x"}}
	err := fr.Run(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, local.called)
}

func TestFallbackRunnerUnreachableFallsBack(t *testing.T) {
	local := &stubRunner{}
	fr := &FallbackRunner{Client: NewClient(filepath.Join(t.TempDir(), "nonexistent.sock")), Local: local}

	job := jobWithPreloaderBinding("segment:token", []string{"model"})
	err := fr.Run(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, local.called)
}

func TestFallbackRunnerLocalErrorPropagates(t *testing.T) {
	local := &stubRunner{err: errors.New("boom")}
	fr := &FallbackRunner{Client: NewClient(filepath.Join(t.TempDir(), "nonexistent.sock")), Local: local}

	job := &schedule.Job{ID: "x", Rule: &compile.Rule{TargetID: "x"}}
	err := fr.Run(context.Background(), job)
	require.Error(t, err)
}
