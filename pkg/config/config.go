// Package config loads fuco.yaml project files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fuco/pkg/diag"
	"fuco/pkg/utils"
	"fuco/pkg/vm"
)

// FileName is the project file looked up by FindConfig.
const FileName = "fuco.yaml"

// Config represents a fuco.yaml project file.
type Config struct {
	// Sources lists the source files of the program, relative to the
	// directory of the config file. They are compiled as one unit, in order.
	Sources []string `yaml:"sources"`

	// Prelude includes the built-in operator definitions. Defaults to true.
	Prelude *bool `yaml:"prelude,omitempty"`

	// StackSize is the interpreter stack size in bytes.
	StackSize int `yaml:"stack_size,omitempty"`

	// MaxSteps aborts execution after this many instructions. 0 means no limit.
	MaxSteps int64 `yaml:"max_steps,omitempty"`

	// Color is "auto", "always" or "never".
	Color string `yaml:"color,omitempty"`

	dir string
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses config content. path is used for error messages and to
// resolve source paths.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// FindConfig searches for fuco.yaml starting from dir and walking up to the
// filesystem root. It returns "" if there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%s: no sources defined", path)
	}
	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if src == "" {
			return fmt.Errorf("%s: sources[%d] is empty", path, i)
		}
		if seen[src] {
			return fmt.Errorf("%s: sources[%d]: %s listed twice", path, i, src)
		}
		seen[src] = true
	}
	if c.StackSize < 0 {
		return fmt.Errorf("%s: stack_size must not be negative", path)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%s: max_steps must not be negative", path)
	}
	if _, err := diag.ParseColorMode(c.Color); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Prelude == nil {
		on := true
		c.Prelude = &on
	}
	if c.StackSize == 0 {
		c.StackSize = vm.DefaultStackSize
	}
	if c.Color == "" {
		c.Color = string(diag.ColorAuto)
	}
}

// UsePrelude reports whether the prelude is compiled in.
func (c *Config) UsePrelude() bool {
	return c.Prelude == nil || *c.Prelude
}

// SourcePaths returns the absolute paths of the sources.
func (c *Config) SourcePaths() ([]string, error) {
	paths := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		full, err := utils.ResolvePath(c.dir, src)
		if err != nil {
			return nil, err
		}
		paths = append(paths, full)
	}
	return paths, nil
}

// VMOptions returns the interpreter settings.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{StackSize: c.StackSize, MaxSteps: c.MaxSteps}
}
