package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "phyretool.yaml"

// Config holds tool settings read from a yaml file; command line flags override it.
type Config struct {
	Encoding string `yaml:"encoding"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	Trace    string `yaml:"trace"`
}

func Default() Config {
	return Config{
		Encoding: "cp1252",
		Workers:  1,
		LogLevel: "info",
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "reading config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %q", path)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// Apply pushes process wide settings.
func (c Config) Apply() error {
	if c.Encoding != "" {
		return SetEncoding(c.Encoding)
	}
	return nil
}
