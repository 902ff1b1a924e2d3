package preload

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/bittoy/corpuspipe/corpuserr"
)

// ProcessorConfig is one entry of the preloader's local configuration,
// identifying a processor to preload and the bindings its preload hook runs
// with, per spec §4.F "On start it reads a local configuration identifying
// which processors to preload and with what bindings."
type ProcessorConfig struct {
	ProcessorID string                 `toml:"processor_id"`
	Bindings    map[string]interface{} `toml:"bindings"`
	Workers     int                    `toml:"workers"`
}

// Config is the preloader's on-disk configuration file.
type Config struct {
	SocketPath string            `toml:"socket_path"`
	Processors []ProcessorConfig `toml:"processor"`
}

// LoadConfig reads a preloader TOML configuration file, mirroring the
// registry's plugins.toml / resolve's decisions.toml loaders for consistency
// (BurntSushi/toml throughout).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, corpuserr.New(corpuserr.KindSocketError, path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, corpuserr.New(corpuserr.KindConfigInvalid, path, err)
	}
	for i := range cfg.Processors {
		if cfg.Processors[i].Workers <= 0 {
			cfg.Processors[i].Workers = 1
		}
	}
	return &cfg, nil
}
