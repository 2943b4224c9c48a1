package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Swind/go-stealpool/internal/config"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"stealpool"}, args...))
	return out.String(), err
}

func TestConfigCommand_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stealpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool:\n  workers: 3\nbench:\n  tasks: 40\n"), 0644))

	out, err := runApp(t, "config", "--config", path, "--tasks", "7", "--skew")
	require.NoError(t, err)

	var cfg config.FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	require.Equal(t, 3, cfg.Pool.Workers)
	require.Equal(t, 7, cfg.Bench.Tasks)
	require.True(t, cfg.Bench.Skew)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestConfigCommand_InvalidFlag(t *testing.T) {
	_, err := runApp(t, "config", "--log-level", "loud")
	require.ErrorContains(t, err, "unknown log level")
}

func TestBenchCommand_RunsWorkload(t *testing.T) {
	out, err := runApp(t, "bench", "--workers", "2", "--tasks", "20", "--listen", "")
	require.NoError(t, err)
	require.Contains(t, out, "20 in 1 groups, 0 failed")
	require.Contains(t, out, "(2 workers)")
}

func TestRunBench_ZeroWorkersFollowsGOMAXPROCS(t *testing.T) {
	// NumCPU+1 differs from NumCPU on every host.
	want := runtime.NumCPU() + 1
	prev := runtime.GOMAXPROCS(want)
	t.Cleanup(func() { runtime.GOMAXPROCS(prev) })

	cfg := config.Default()
	cfg.Pool.Workers = 0
	cfg.Bench.Tasks = 10
	cfg.Metrics.Enabled = false
	s, err := cfg.ToSettings()
	require.NoError(t, err)
	require.Equal(t, want, poolWorkers(s))

	log := logrus.New()
	log.SetOutput(io.Discard)
	summary, err := runBench(context.Background(), s, log)
	require.NoError(t, err)
	require.Equal(t, want, summary.Stats.Workers)
	require.Equal(t, 10, summary.Submitted)
}

func TestPoolWorkers_ExplicitCountWins(t *testing.T) {
	s, err := config.Default().ToSettings()
	require.NoError(t, err)
	s.Workers = 3
	require.Equal(t, 3, poolWorkers(s))
}
