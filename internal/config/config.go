// Package config loads dead-code expectations from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the expectations file looked up when none is given.
const DefaultPath = ".shaker.yaml"

// ErrInvalidConfig is returned when an expectations file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config declares which symbols of a target package each entry point retains.
type Config struct {
	Target string  `yaml:"target"` // Import path of the package under test.
	Checks []Check `yaml:"checks"`
}

// Check is the expectation for a single entry point.
type Check struct {
	Entry     string   `yaml:"entry"`     // Package pattern of the program.
	Retain    []string `yaml:"retain"`    // Symbols that must stay reachable.
	Eliminate []string `yaml:"eliminate"` // Symbols that must be unreachable.
}

// Load reads and validates the expectations file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates expectations. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the config is complete and consistent.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidConfig)
	}

	if len(c.Checks) == 0 {
		return fmt.Errorf("%w: at least one check is required", ErrInvalidConfig)
	}

	for i, check := range c.Checks {
		if check.Entry == "" {
			return fmt.Errorf("%w: check %d: entry is required", ErrInvalidConfig, i)
		}

		retained := make(map[string]bool, len(check.Retain))
		for _, name := range check.Retain {
			retained[name] = true
		}

		for _, name := range check.Eliminate {
			if retained[name] {
				return fmt.Errorf(
					"%w: check %d: %s is both retained and eliminated",
					ErrInvalidConfig, i, name,
				)
			}
		}
	}

	return nil
}

// Entries returns the entry pattern of every check, in file order.
func (c *Config) Entries() []string {
	entries := make([]string, len(c.Checks))
	for i, check := range c.Checks {
		entries[i] = check.Entry
	}

	return entries
}
