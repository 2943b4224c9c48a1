// Package config loads the stealpool command's configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of a configuration file.
type FileConfig struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Bench   BenchConfig   `yaml:"bench" json:"bench"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// PoolConfig sizes and names the pool.
type PoolConfig struct {
	ID              string `yaml:"id" json:"id"`
	Workers         int    `yaml:"workers" json:"workers"`
	HistoryCapacity int    `yaml:"history_capacity" json:"history_capacity"`
}

// BenchConfig describes the synthetic workload.
type BenchConfig struct {
	Tasks        int     `yaml:"tasks" json:"tasks"`
	Rate         float64 `yaml:"rate" json:"rate"`
	Burst        int     `yaml:"burst" json:"burst"`
	TaskDuration string  `yaml:"task_duration" json:"task_duration"`
	FailureRatio float64 `yaml:"failure_ratio" json:"failure_ratio"`
	Skew         bool    `yaml:"skew" json:"skew"`
}

// MetricsConfig controls the HTTP endpoint.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Listen       string `yaml:"listen" json:"listen"`
	Namespace    string `yaml:"namespace" json:"namespace"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Settings is a validated FileConfig with durations parsed.
type Settings struct {
	PoolID          string
	Workers         int
	HistoryCapacity int

	Tasks        int
	Rate         float64
	Burst        int
	TaskDuration time.Duration
	FailureRatio float64
	Skew         bool

	MetricsEnabled bool
	Listen         string
	Namespace      string
	PollInterval   time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no file is given.
func Default() *FileConfig {
	return &FileConfig{
		Pool: PoolConfig{
			ID:              "bench",
			HistoryCapacity: 1000,
		},
		Bench: BenchConfig{
			Tasks:        10000,
			Burst:        100,
			TaskDuration: "1ms",
		},
		Metrics: MetricsConfig{
			Enabled:      true,
			Listen:       ":9090",
			Namespace:    "stealpool",
			PollInterval: "1s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile reads a YAML or JSON file on top of Default().
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config, nil
}

// Marshal renders the configuration as YAML.
func (f *FileConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate checks value ranges. Durations are checked by ToSettings.
func (f *FileConfig) Validate() error {
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}
	if f.Pool.HistoryCapacity < 0 {
		return fmt.Errorf("pool.history_capacity must be non-negative")
	}

	if f.Bench.Tasks < 0 {
		return fmt.Errorf("bench.tasks must be non-negative")
	}
	if f.Bench.Rate < 0 {
		return fmt.Errorf("bench.rate must be non-negative")
	}
	if f.Bench.Rate > 0 && f.Bench.Burst < 1 {
		return fmt.Errorf("bench.burst must be at least 1 when bench.rate is set")
	}
	if f.Bench.FailureRatio < 0 || f.Bench.FailureRatio > 1 {
		return fmt.Errorf("bench.failure_ratio must be between 0 and 1")
	}

	if f.Metrics.Enabled && f.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}

	switch strings.ToLower(f.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", f.Log.Level)
	}
	switch strings.ToLower(f.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", f.Log.Format)
	}

	return nil
}

// ToSettings validates the configuration and parses its durations.
func (f *FileConfig) ToSettings() (Settings, error) {
	if err := f.Validate(); err != nil {
		return Settings{}, err
	}

	s := Settings{
		PoolID:          f.Pool.ID,
		Workers:         f.Pool.Workers,
		HistoryCapacity: f.Pool.HistoryCapacity,
		Tasks:           f.Bench.Tasks,
		Rate:            f.Bench.Rate,
		Burst:           f.Bench.Burst,
		FailureRatio:    f.Bench.FailureRatio,
		Skew:            f.Bench.Skew,
		MetricsEnabled:  f.Metrics.Enabled,
		Listen:          f.Metrics.Listen,
		Namespace:       f.Metrics.Namespace,
		PollInterval:    time.Second,
		LogLevel:        strings.ToLower(f.Log.Level),
		LogFormat:       strings.ToLower(f.Log.Format),
	}

	if f.Bench.TaskDuration != "" {
		d, err := time.ParseDuration(f.Bench.TaskDuration)
		if err != nil {
			return s, fmt.Errorf("invalid bench.task_duration: %w", err)
		}
		if d < 0 {
			return s, fmt.Errorf("bench.task_duration must be non-negative")
		}
		s.TaskDuration = d
	}
	if f.Metrics.PollInterval != "" {
		d, err := time.ParseDuration(f.Metrics.PollInterval)
		if err != nil {
			return s, fmt.Errorf("invalid metrics.poll_interval: %w", err)
		}
		if d <= 0 {
			return s, fmt.Errorf("metrics.poll_interval must be positive")
		}
		s.PollInterval = d
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.LogFormat == "" {
		s.LogFormat = "text"
	}

	return s, nil
}
