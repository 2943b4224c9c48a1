package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Swind/go-stealpool/core"
	"github.com/Swind/go-stealpool/internal/bench"
	"github.com/Swind/go-stealpool/internal/config"
	"github.com/Swind/go-stealpool/internal/server"
	promexp "github.com/Swind/go-stealpool/observability/prometheus"
)

func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:    "bench",
		Aliases: []string{"b"},
		Usage:   "Run a synthetic workload and report scheduling statistics",
		Flags:   configFlags(),
		Action:  BenchAction,
	}
}

func BenchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	settings, err := cfg.ToSettings()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	log := newLogger(settings, c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runBench(ctx, settings, log)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	printSummary(c.App.Writer, summary)
	return nil
}

// runBench wires pool, metrics and HTTP server, runs the workload and tears everything down.
func runBench(ctx context.Context, s config.Settings, log *logrus.Logger) (bench.Summary, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	exporter, err := promexp.NewMetricsExporter(s.Namespace, reg, promexp.ExporterOptions{})
	if err != nil {
		return bench.Summary{}, fmt.Errorf("create metrics exporter: %w", err)
	}
	poller, err := promexp.NewSnapshotPoller(reg, s.PollInterval)
	if err != nil {
		return bench.Summary{}, fmt.Errorf("create snapshot poller: %w", err)
	}

	poolLogger := core.NewLogrusLogger(log).With(core.F("component", "pool"))
	pool, err := core.NewWorkStealingPool(poolWorkers(s),
		core.WithID(s.PoolID),
		core.WithLogger(poolLogger),
		core.WithMetrics(exporter),
		core.WithErrorHandler(&core.LoggingErrorHandler{Logger: poolLogger}),
		core.WithRejectedTaskHandler(&core.LoggingRejectedTaskHandler{Logger: poolLogger}),
		core.WithHistoryCapacity(s.HistoryCapacity),
	)
	if err != nil {
		return bench.Summary{}, fmt.Errorf("create pool: %w", err)
	}
	defer pool.Shutdown()

	poller.AddPool(pool.ID(), pool)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	if s.MetricsEnabled {
		poller.Start(gctx)
		defer poller.Stop()

		srv := server.New(pool, reg, log)
		g.Go(func() error {
			return srv.Run(gctx, s.Listen)
		})
	}

	var summary bench.Summary
	g.Go(func() error {
		// The server follows the workload: stop it once the workload is done.
		defer cancelRun()
		var err error
		summary, err = bench.Run(gctx, pool, bench.Workload{
			Tasks:        s.Tasks,
			Rate:         s.Rate,
			Burst:        s.Burst,
			TaskDuration: s.TaskDuration,
			FailureRatio: s.FailureRatio,
			Skew:         s.Skew,
		}, core.NewLogrusLogger(log).With(core.F("component", "bench")))
		return err
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// poolWorkers resolves a zero worker count to GOMAXPROCS, which maxprocs has
// already fitted to the CPU quota. The library default stays NumCPU.
func poolWorkers(s config.Settings) int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func newLogger(s config.Settings, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out != nil {
		log.SetOutput(out)
	}
	if s.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func printSummary(w io.Writer, s bench.Summary) {
	throughput := 0.0
	if s.Elapsed > 0 {
		throughput = float64(s.Submitted) / s.Elapsed.Seconds()
	}

	fmt.Fprintf(w, "✓ Run %s finished\n", s.RunID)
	fmt.Fprintf(w, "  Pool:       %s (%d workers)\n", s.Stats.ID, s.Stats.Workers)
	fmt.Fprintf(w, "  Tasks:      %d in %d groups, %d failed\n", s.Submitted, s.Groups, s.Failed)
	fmt.Fprintf(w, "  Elapsed:    %s (%.0f tasks/s)\n", s.Elapsed.Round(time.Millisecond), throughput)
	fmt.Fprintf(w, "  Stolen:     %d\n", s.Stats.Stolen)
	for _, ws := range s.Stats.PerWorker {
		fmt.Fprintf(w, "  worker %-3d  executed=%-8d stolen=%d\n", ws.ID, ws.Executed, ws.Stolen)
	}
}
