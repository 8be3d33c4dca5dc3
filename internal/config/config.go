// Package config loads the checker's run-time options from a YAML file,
// the same format and library (goccy/go-yaml) the teacher project uses
// for its own configuration surfaces.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the on-disk configuration surface for a checker run. It maps
// directly onto checker.Options; the separate type exists so the YAML
// tags and defaulting live in one place independent of the checker
// package's internals.
type Config struct {
	IgnoreUndefinedParameters bool `yaml:"ignoreUndefinedParameters"`
}

// Default returns the configuration a run uses when no file is supplied.
func Default() Config {
	return Config{}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
