package main

import (
	"fmt"
	"path/filepath"

	"github.com/bittoy/corpuspipe/compile"
	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/pathconf"
	"github.com/bittoy/corpuspipe/registry"
	"github.com/bittoy/corpuspipe/resolve"
	"github.com/gofrs/uuid/v5"
)

// env bundles the frozen, read-only state every verb needs: directories,
// merged config, registry, resolver, and a run ID for logging/content-key
// scoping, per spec §3 "Lifecycle": "Configuration is loaded at startup and
// frozen before rule compilation."
type env struct {
	dirs     pathconf.Dirs
	cfg      *pathconf.Config
	reg      *registry.Registry
	resolver *resolve.Resolver
	logger   pathconf.Logger
	closeLog func()
	runID    string
}

func loadEnv(needConfig bool) (*env, error) {
	corpusRoot, err := filepath.Abs(flagCorpus)
	if err != nil {
		return nil, err
	}

	dataDefault := filepath.Join(corpusRoot, ".engine", "data")
	dirs := pathconf.NewDirs(corpusRoot, dataDefault)
	if flagDataDir != "" {
		dirs.Data = flagDataDir
	}
	if err := dirs.EnsureExist(); err != nil {
		return nil, err
	}

	runID, _ := uuid.NewV4()
	logger, closeLog, err := pathconf.NewLogger(dirs, runID.String())
	if err != nil {
		logger, closeLog = pathconf.DefaultLogger(), func() {}
	}

	reg := registry.New()
	if err := loadRegistry(dirs, reg); err != nil {
		return nil, err
	}

	e := &env{dirs: dirs, reg: reg, logger: logger, closeLog: closeLog, runID: runID.String()}

	if needConfig {
		cfg, err := pathconf.LoadCorpusConfig(dirs)
		if err != nil {
			return nil, err
		}
		e.cfg = cfg

		decisions, err := resolve.LoadDecisions(dirs)
		if err != nil {
			return nil, err
		}
		arbiter := resolve.NewRememberingArbiter(dirs, nil, decisions)
		e.resolver = resolve.NewResolver(dirs, configLookup{cfg}, reg, arbiter)
	}

	return e, nil
}

// configLookup adapts pathconf.Config to resolve.ConfigLookup.
type configLookup struct{ c *pathconf.Config }

func (c configLookup) Get(key string, def interface{}) (interface{}, bool) {
	return c.c.Get(key, def)
}

// loadRegistry discovers plugin-declared processors (plugins.toml) and
// corpus-local custom.<file> scripts, per spec §4.B.
func loadRegistry(dirs pathconf.Dirs, reg *registry.Registry) error {
	manifestPath := filepath.Join(dirs.Data, "plugins.toml")
	manifest, err := registry.LoadPluginManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := registry.LoadPlugins(manifest, reg); err != nil {
		return err
	}
	return registry.LoadScriptProcessors(dirs.Corpus, reg)
}

func (e *env) compiler(arbiter resolve.Arbiter) *compile.Compiler {
	language := e.cfg.GetString("metadata.language", "")
	variety := e.cfg.GetString("metadata.variety", "")
	return compile.NewCompiler(e.reg, e.resolver, arbiter, language, variety)
}

func (e *env) close() {
	if e.closeLog != nil {
		e.closeLog()
	}
}

func languageUnsupportedErr(corpusLang string) error {
	return corpuserr.New(corpuserr.KindLanguageUnsupported, corpusLang,
		fmt.Errorf("no active producer for requested target in this language"))
}
