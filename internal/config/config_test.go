package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeTemp(t, "stealpool.yaml", `
pool:
  id: load-test
  workers: 8
bench:
  tasks: 500
  rate: 250
  burst: 10
  task_duration: 2ms
  failure_ratio: 0.1
  skew: true
metrics:
  listen: 127.0.0.1:9100
  poll_interval: 250ms
log:
  level: debug
  format: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	s, err := cfg.ToSettings()
	require.NoError(t, err)
	require.Equal(t, "load-test", s.PoolID)
	require.Equal(t, 8, s.Workers)
	require.Equal(t, 500, s.Tasks)
	require.Equal(t, 250.0, s.Rate)
	require.Equal(t, 2*time.Millisecond, s.TaskDuration)
	require.True(t, s.Skew)
	require.Equal(t, 250*time.Millisecond, s.PollInterval)
	require.Equal(t, "debug", s.LogLevel)
	require.Equal(t, "json", s.LogFormat)

	// Fields absent from the file keep their defaults.
	require.True(t, s.MetricsEnabled)
	require.Equal(t, "stealpool", s.Namespace)
	require.Equal(t, 1000, s.HistoryCapacity)
}

func TestLoadFileJSON(t *testing.T) {
	path := writeTemp(t, "stealpool.json", `{"pool": {"workers": 3}, "metrics": {"enabled": false}}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Pool.Workers)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, 10000, cfg.Bench.Tasks)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFile(writeTemp(t, "stealpool.toml", "pool = 1"))
	require.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFile(writeTemp(t, "broken.yaml", "pool: [unterminated"))
	require.ErrorContains(t, err, "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
		errMsg string
	}{
		{"negative workers", func(c *FileConfig) { c.Pool.Workers = -1 }, "pool.workers"},
		{"negative tasks", func(c *FileConfig) { c.Bench.Tasks = -5 }, "bench.tasks"},
		{"rate without burst", func(c *FileConfig) { c.Bench.Rate = 10; c.Bench.Burst = 0 }, "bench.burst"},
		{"failure ratio above one", func(c *FileConfig) { c.Bench.FailureRatio = 1.5 }, "bench.failure_ratio"},
		{"metrics without listen", func(c *FileConfig) { c.Metrics.Listen = "" }, "metrics.listen"},
		{"unknown level", func(c *FileConfig) { c.Log.Level = "verbose" }, "log level"},
		{"unknown format", func(c *FileConfig) { c.Log.Format = "xml" }, "log format"},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestToSettingsDurations(t *testing.T) {
	cfg := Default()
	cfg.Bench.TaskDuration = "soon"
	_, err := cfg.ToSettings()
	require.ErrorContains(t, err, "bench.task_duration")

	cfg = Default()
	cfg.Metrics.PollInterval = "0s"
	_, err = cfg.ToSettings()
	require.ErrorContains(t, err, "metrics.poll_interval")
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Pool.Workers = 6

	data, err := cfg.Marshal()
	require.NoError(t, err)

	var back FileConfig
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.Equal(t, *cfg, back)
}
