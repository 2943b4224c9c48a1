package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Swind/go-stealpool/internal/config"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration as YAML",
		Flags:  configFlags(),
		Action: ConfigAction,
	}
}

func ConfigAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to render config: %v", err), 1)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// loadConfig reads --config (or the defaults) and applies explicitly set flags on top.
func loadConfig(c *cli.Context) (*config.FileConfig, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("workers") {
		cfg.Pool.Workers = c.Int("workers")
	}
	if c.IsSet("tasks") {
		cfg.Bench.Tasks = c.Int("tasks")
	}
	if c.IsSet("rate") {
		cfg.Bench.Rate = c.Float64("rate")
	}
	if c.IsSet("skew") {
		cfg.Bench.Skew = c.Bool("skew")
	}
	if c.IsSet("listen") {
		cfg.Metrics.Listen = c.String("listen")
		cfg.Metrics.Enabled = cfg.Metrics.Listen != ""
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
