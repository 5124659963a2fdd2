package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bootstrap holds the subset of Config that may be seeded from an
// optional feedmaster.yaml file before environment variables are
// applied. It exists for local development and deploys that prefer a
// checked-in, non-secret defaults file over a wall of env vars; nothing
// here may hold credentials.
type Bootstrap struct {
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Polling struct {
		LoopIntervalSeconds int `yaml:"loop_interval_seconds"`
		BatchSize           int `yaml:"batch_size"`
	} `yaml:"polling"`

	Aggregation struct {
		TickIntervalSeconds int `yaml:"tick_interval_seconds"`
	} `yaml:"aggregation"`

	Stats struct {
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"stats"`
}

// loadBootstrapFile reads path and strict-decodes it into a Bootstrap.
// A missing file is not an error; callers just get a zero-value
// Bootstrap and env vars (or hardcoded defaults) take over entirely.
func loadBootstrapFile(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Bootstrap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bootstrap file %s: %w", path, err)
	}

	var b Bootstrap
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bootstrap file %s: %w", path, err)
	}
	return &b, nil
}

// applyBootstrap fills cfg fields from b wherever the corresponding env
// var was not set, establishing the precedence: env vars > bootstrap
// file > hardcoded defaults.
func applyBootstrap(cfg *Config, b *Bootstrap) {
	if os.Getenv("ENV") == "" && b.Env != "" {
		cfg.Env = b.Env
	}
	if os.Getenv("LOG_LEVEL") == "" && b.LogLevel != "" {
		cfg.LogLevel = b.LogLevel
	}
	if os.Getenv("LOG_FORMAT") == "" && b.LogFormat != "" {
		cfg.LogFormat = b.LogFormat
	}
	if os.Getenv("POLLING_LOOP_INTERVAL_SECONDS") == "" && b.Polling.LoopIntervalSeconds != 0 {
		cfg.Polling.LoopIntervalSeconds = b.Polling.LoopIntervalSeconds
	}
	if os.Getenv("POLLING_BATCH_SIZE") == "" && b.Polling.BatchSize != 0 {
		cfg.Polling.BatchSize = b.Polling.BatchSize
	}
	if os.Getenv("WORKER_POLLING_INTERVAL_SECONDS") == "" && b.Aggregation.TickIntervalSeconds != 0 {
		cfg.Aggregation.TickIntervalSeconds = b.Aggregation.TickIntervalSeconds
	}
	if os.Getenv("STATS_WORKER_INTERVAL_MINUTES") == "" && b.Stats.IntervalMinutes != 0 {
		cfg.Stats.IntervalMinutes = b.Stats.IntervalMinutes
	}
}
