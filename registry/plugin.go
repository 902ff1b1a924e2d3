package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"github.com/BurntSushi/toml"
	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/google/uuid"
)

// PluginEntry is one "engine.plugin" manifest entry: a named Go plugin
// shared object exposing a Plugins() []*Implementation factory function,
// mirroring the teacher's PluginsSymbol convention (engine/registry.go).
//
// InstanceID tags this particular `plugins install` with a fresh identifier,
// so reinstalling the same Path (e.g. after a rebuild) is distinguishable in
// logs and metrics from the instance it replaces.
type PluginEntry struct {
	Name       string `toml:"name"`
	Path       string `toml:"path"`
	InstanceID string `toml:"instance_id"`
}

// PluginManifest is the on-disk "plugins.toml" describing installed
// engine.plugin entry points, per spec §4.B "installed plugins declared via
// an engine.plugin entry-point mechanism".
type PluginManifest struct {
	Plugin []PluginEntry `toml:"plugin"`
}

// PluginsSymbol is the exported symbol every plugin .so must define: a
// func() []*Implementation.
const PluginsSymbol = "Plugins"

// NewInstanceID mints a fresh discovery instance tag for a `plugins install`
// manifest entry (registry.PluginEntry.InstanceID).
func NewInstanceID() string {
	return uuid.New().String()
}

// LoadPluginManifest reads and parses a plugins.toml file.
func LoadPluginManifest(path string) (*PluginManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &PluginManifest{}, nil
	} else if err != nil {
		return nil, err
	}
	var m PluginManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, corpuserr.New(corpuserr.KindConfigInvalid, path, err)
	}
	return &m, nil
}

// Save writes the manifest back to disk, used by `plugins install|uninstall`.
func (m *PluginManifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(m)
}

// LoadPlugins opens every plugin in the manifest and registers the
// implementations it exposes.
func LoadPlugins(m *PluginManifest, r *Registry) error {
	for _, entry := range m.Plugin {
		p, err := plugin.Open(entry.Path)
		if err != nil {
			return corpuserr.New(corpuserr.KindProcessorInvalid, entry.Name, err)
		}
		sym, err := p.Lookup(PluginsSymbol)
		if err != nil {
			return corpuserr.New(corpuserr.KindProcessorInvalid, entry.Name, err)
		}
		factory, ok := sym.(func() []*Implementation)
		if !ok {
			return corpuserr.New(corpuserr.KindProcessorInvalid, entry.Name,
				fmt.Errorf("Plugins symbol has wrong signature"))
		}
		for _, impl := range factory() {
			if err := r.Register(impl); err != nil {
				return err
			}
		}
	}
	return nil
}
