// Package config loads treegrep settings from file, environment, and
// defaults via viper.
package config

import (
	"errors"
	"fmt"
	"runtime"
)

// Color output modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults applied before any config source is read.
const (
	DefaultColor            = ColorAuto
	DefaultPatternCacheSize = 256
	DefaultMaxFileSize      = 4 << 20
)

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration struct for treegrep.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Scan    ScanConfig    `mapstructure:"scan"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ScanConfig holds file discovery and worker settings.
type ScanConfig struct {
	// Language is the default language for inline patterns when no
	// --lang flag is given.
	Language string `mapstructure:"language"`

	Workers          int      `mapstructure:"workers"`
	RuleDirs         []string `mapstructure:"rule_dirs"`
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	IncludeHidden    bool     `mapstructure:"include_hidden"`
	FollowSymlinks   bool     `mapstructure:"follow_symlinks"`
	PatternCacheSize int      `mapstructure:"pattern_cache_size"`
}

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Color   string `mapstructure:"color"`
	Context int    `mapstructure:"context"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Validate checks cross-field constraints after unmarshalling.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: scan.workers must be >= 0, got %d", ErrInvalidConfig, c.Scan.Workers)
	}

	if c.Scan.MaxFileSize < 0 {
		return fmt.Errorf("%w: scan.max_file_size must be >= 0, got %d", ErrInvalidConfig, c.Scan.MaxFileSize)
	}

	if c.Scan.PatternCacheSize <= 0 {
		return fmt.Errorf("%w: scan.pattern_cache_size must be > 0, got %d", ErrInvalidConfig, c.Scan.PatternCacheSize)
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: output.color must be auto, always, or never, got %q", ErrInvalidConfig, c.Output.Color)
	}

	if c.Output.Context < 0 {
		return fmt.Errorf("%w: output.context must be >= 0, got %d", ErrInvalidConfig, c.Output.Context)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics.enabled is set", ErrInvalidConfig)
	}

	return nil
}

// EffectiveWorkers resolves the configured worker count, treating zero
// as "one per CPU".
func (c *Config) EffectiveWorkers() int {
	if c.Scan.Workers == 0 {
		return DefaultWorkers()
	}

	return c.Scan.Workers
}
