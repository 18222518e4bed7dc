// Package config loads the svctimer application configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for application configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultHistoryPath     = "data/settings/task_times.json"
	DefaultCacheTTLMinutes = 5
	DefaultWorkers         = 4
)

// EstimationConfig holds the estimation engine settings.
type EstimationConfig struct {
	// Enabled is the feature flag the engine consults before doing any
	// work. Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// CacheTTLMinutes bounds the age of the cached record snapshot.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes,omitempty"`

	// Workers bounds batch estimation concurrency.
	Workers int `yaml:"workers,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// HistoryPath locates the task time history JSON file.
	HistoryPath string `yaml:"history_path,omitempty"`

	Estimation EstimationConfig `yaml:"estimation,omitempty"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		HistoryPath: DefaultHistoryPath,
		Estimation: EstimationConfig{
			CacheTTLMinutes: DefaultCacheTTLMinutes,
			Workers:         DefaultWorkers,
		},
	}
}

// Load reads the configuration at path, layering it over defaults. A missing
// file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}
	if cfg.Estimation.CacheTTLMinutes <= 0 {
		cfg.Estimation.CacheTTLMinutes = DefaultCacheTTLMinutes
	}
	if cfg.Estimation.Workers <= 0 {
		cfg.Estimation.Workers = DefaultWorkers
	}
	return cfg, nil
}

// EstimationEnabled reports the feature flag, defaulting to enabled.
func (c *Config) EstimationEnabled() bool {
	return c.Estimation.Enabled == nil || *c.Estimation.Enabled
}

// CacheTTL returns the record cache time-to-live.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Estimation.CacheTTLMinutes) * time.Minute
}
