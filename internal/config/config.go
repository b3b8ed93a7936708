// Package config loads the deallocprofd daemon's settings: defaults,
// optional YAML file, then flag overrides, in that priority order.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr   = ":9092"
	defaultSnapshotDB   = ""
	defaultSampleWeight = 1.0
	defaultLogLevel     = "info"
)

// Config holds the daemon's settings. Zero-value Config is invalid; use
// Default to get a valid starting point.
type Config struct {
	// ListenAddr is a listen address that Validate requires to be
	// non-empty. No command starts a network listener with it.
	ListenAddr string `yaml:"listen_addr"`
	// SnapshotDB is the DuckDB DSN used to persist stopped profiles. Empty
	// skips persistence.
	SnapshotDB string `yaml:"snapshot_db"`
	// SampleWeight is the default inverse sampling probability applied to
	// allocations that don't carry their own weight.
	SampleWeight float64 `yaml:"sample_weight"`
	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// ProfileDuration bounds a demo run. The run command's --duration flag
	// (default 5s) replaces it whenever the flag value is positive, so a
	// value from the file only applies with --duration=0. A zero duration
	// ends the workload as soon as it starts.
	ProfileDuration time.Duration `yaml:"profile_duration"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		ListenAddr:   defaultListenAddr,
		SnapshotDB:   defaultSnapshotDB,
		SampleWeight: defaultSampleWeight,
		LogLevel:     defaultLogLevel,
	}
}

// Load reads path (if non-empty) as YAML over Default's values. A missing
// file is not an error — Default alone is returned — but a present, invalid
// file is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration error found, if any.
func (c Config) Validate() error {
	if c.SampleWeight <= 0 {
		return fmt.Errorf("config: sample_weight must be positive, got %g", c.SampleWeight)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	return nil
}
