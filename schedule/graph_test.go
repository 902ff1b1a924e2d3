package schedule

import (
	"testing"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapConfig map[string]interface{}

func (m mapConfig) Get(key string, def interface{}) (interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return def, false
	}
	return v, true
}

// buildTokenPosGraph registers a two-stage pipeline (tokeniser -> POS
// tagger) and compiles/resolves/builds a graph targeting the tagger's
// output, for use across several tests in this file.
func buildTokenPosGraph(t *testing.T, files []string) (*Graph, *resolve.Resolver) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "segment", Function: "token", Kind: registry.KindAnnotator, Summary: "Tokeniser.",
			Params:  []registry.Param{{Name: "out", Role: registry.RoleAnnotationOutput, Default: "token"}},
			Outputs: []string{"token"},
		},
	}))
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "pos", Function: "tag", Kind: registry.KindAnnotator, Summary: "POS tagger.",
			Params: []registry.Param{
				{Name: "word", Role: registry.RoleAnnotationInput, Default: "token"},
				{Name: "out", Role: registry.RoleAnnotationOutput, Default: "token:pos"},
			},
			Outputs: []string{"token:pos"},
		},
	}))

	dirs := pathconf.Dirs{Corpus: t.TempDir()}
	dirs.Work = dirs.Corpus + "/work"
	resolver := resolve.NewResolver(dirs, mapConfig{}, reg, nil)

	c := compile.NewCompiler(reg, resolver, nil, "", "")
	rules, err := c.Compile(nil)
	require.NoError(t, err)

	lookup := NewRuleLookup(rules)
	g, err := BuildGraph([]string{"token:pos"}, files, resolver, lookup)
	require.NoError(t, err)
	return g, resolver
}

func TestBuildGraph_WiresProducerToConsumer(t *testing.T) {
	g, _ := buildTokenPosGraph(t, []string{"doc1"})
	require.Len(t, g.Jobs, 2)

	var tagger, tokeniser *Job
	for _, j := range g.Jobs {
		switch j.Rule.TargetID {
		case "pos:tag":
			tagger = j
		case "segment:token":
			tokeniser = j
		}
	}
	require.NotNil(t, tagger)
	require.NotNil(t, tokeniser)

	require.Len(t, tagger.deps, 1)
	assert.Same(t, tokeniser, tagger.deps[0])
	assert.Equal(t, 1, tagger.waitCount)
	assert.Equal(t, 0, tokeniser.waitCount)
}

func TestBuildGraph_OneJobPerFile(t *testing.T) {
	g, _ := buildTokenPosGraph(t, []string{"doc1", "doc2"})
	assert.Len(t, g.Jobs, 4)

	leaves := g.Leaves()
	assert.Len(t, leaves, 2)
}

// buildClassFormGraph registers the same two-stage pipeline as
// buildTokenPosGraph, but declares outputs/inputs in class form ("<token>",
// "<token:pos>") the way a real annotator would (spec §3 "class
// placeholders"), and targets the class-form reference rather than the
// producer's raw concrete literal.
func buildClassFormGraph(t *testing.T, files []string) (*Graph, *resolve.Resolver) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "segment", Function: "token", Kind: registry.KindAnnotator, Summary: "Tokeniser.",
			Params:  []registry.Param{{Name: "out", Role: registry.RoleAnnotationOutput, Default: "segment.token", ClassOf: "token"}},
			Outputs: []string{"segment.token"},
		},
	}))
	require.NoError(t, reg.Register(&registry.Implementation{
		Processor: registry.Processor{
			Module: "pos", Function: "tag", Kind: registry.KindAnnotator, Summary: "POS tagger.",
			Params: []registry.Param{
				{Name: "word", Role: registry.RoleAnnotationInput, Default: "<token>"},
				{Name: "out", Role: registry.RoleAnnotationOutput, Default: "<token:pos>"},
			},
		},
	}))

	dirs := pathconf.Dirs{Corpus: t.TempDir()}
	dirs.Work = dirs.Corpus + "/work"
	resolver := resolve.NewResolver(dirs, mapConfig{}, reg, nil)

	c := compile.NewCompiler(reg, resolver, nil, "", "")
	rules, err := c.Compile(nil)
	require.NoError(t, err)

	lookup := NewRuleLookup(rules)
	g, err := BuildGraph([]string{"<token:pos>"}, files, resolver, lookup)
	require.NoError(t, err)
	return g, resolver
}

func TestBuildGraph_ClassFormTargetAndInputResolveToProducers(t *testing.T) {
	g, _ := buildClassFormGraph(t, []string{"doc1"})
	require.Len(t, g.Jobs, 2)

	var tagger, tokeniser *Job
	for _, j := range g.Jobs {
		switch j.Rule.TargetID {
		case "pos:tag":
			tagger = j
		case "segment:token":
			tokeniser = j
		}
	}
	require.NotNil(t, tagger, "class-form target <token:pos> must resolve to pos:tag, not NoProducer")
	require.NotNil(t, tokeniser, "class-form input <token> must resolve to segment:token, not be treated as a source file")

	require.Len(t, tagger.deps, 1)
	assert.Same(t, tokeniser, tagger.deps[0])
	assert.Equal(t, 1, tagger.waitCount)
	assert.Equal(t, 0, tokeniser.waitCount)
}

func TestBuildGraph_UnknownTargetFails(t *testing.T) {
	reg := registry.New()
	dirs := pathconf.Dirs{Corpus: t.TempDir()}
	resolver := resolve.NewResolver(dirs, mapConfig{}, reg, nil)
	lookup := NewRuleLookup(nil)

	_, err := BuildGraph([]string{"nope"}, []string{"doc1"}, resolver, lookup)
	require.Error(t, err)
}
