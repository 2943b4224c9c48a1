// Command stealpool runs synthetic workloads on a work-stealing pool and
// exposes its statistics and Prometheus metrics while they run.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Size GOMAXPROCS to the container quota; a zero worker count follows it.
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "maxprocs: %v\n", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "stealpool",
		Usage: "work-stealing pool benchmark and inspection tool",
		Commands: []*cli.Command{
			BenchCommand(),
			ConfigCommand(),
		},
	}
}

// configFlags are shared by every command that reads the configuration.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML or JSON configuration file",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "worker count (0 uses GOMAXPROCS, fitted to the CPU quota)",
		},
		&cli.IntFlag{
			Name:    "tasks",
			Aliases: []string{"n"},
			Usage:   "number of tasks to submit",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "submissions per second (0 is unlimited)",
		},
		&cli.BoolFlag{
			Name:  "skew",
			Usage: "make every tenth task ten times slower",
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address for /metrics and /stats",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}
