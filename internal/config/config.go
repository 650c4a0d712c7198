// Package config holds the aquachem CLI configuration: run store
// location, solver tuning, batch concurrency and logging. Configuration
// loads from YAML with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"aquachem/internal/equilibrium"
)

// Config holds all aquachem configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Solver  SolverConfig  `yaml:"solver"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the run archive.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SolverConfig tunes the equilibrium solver.
type SolverConfig struct {
	Epsilon            float64 `yaml:"epsilon"`
	MaxIterations      int     `yaml:"max_iterations"`
	MaxOuterIterations int     `yaml:"max_outer_iterations"`
}

// BatchConfig configures concurrent scenario execution.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	opts := equilibrium.DefaultOptions()
	return &Config{
		Store: StoreConfig{Path: filepath.Join(".aquachem", "runs.db")},
		Solver: SolverConfig{
			Epsilon:            opts.Epsilon,
			MaxIterations:      opts.MaxIterations,
			MaxOuterIterations: opts.MaxOuterIterations,
		},
		Batch: BatchConfig{Concurrency: 4},
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(".aquachem", "config.yaml")
}

// Load reads the configuration file, starting from defaults. A missing
// file yields the defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("AQUACHEM_DB"); path != "" {
		c.Store.Path = path
	}
	if v := os.Getenv("AQUACHEM_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.Concurrency = n
		}
	}
	if v := os.Getenv("AQUACHEM_VERBOSE"); v == "1" || v == "true" {
		c.Logging.Verbose = true
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Solver.Epsilon <= 0 {
		return fmt.Errorf("config: solver epsilon must be positive")
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("config: solver max_iterations must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("config: batch concurrency must be positive")
	}
	return nil
}

// SolverOptions converts the solver section to equilibrium options.
func (c *Config) SolverOptions() equilibrium.Options {
	opts := equilibrium.DefaultOptions()
	opts.Epsilon = c.Solver.Epsilon
	opts.MaxIterations = c.Solver.MaxIterations
	if c.Solver.MaxOuterIterations > 0 {
		opts.MaxOuterIterations = c.Solver.MaxOuterIterations
	}
	return opts
}
