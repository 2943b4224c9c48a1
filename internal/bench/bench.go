// Package bench drives a synthetic workload through a WorkStealingPool.
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/Swind/go-stealpool/core"
)

// errInjected is returned by tasks picked to fail.
var errInjected = errors.New("injected failure")

// slowFactor is how much longer every tenth task runs in skewed workloads.
const slowFactor = 10

// Workload describes the tasks to submit.
type Workload struct {
	Tasks int
	// Rate limits submissions per second; zero submits as fast as possible.
	Rate float64
	// Burst is the group size and the limiter burst.
	Burst        int
	TaskDuration time.Duration
	FailureRatio float64
	// Skew makes every tenth task slowFactor times longer so that queues drift apart.
	Skew bool
}

// Summary is the outcome of one Run.
type Summary struct {
	RunID     string
	Submitted int
	Failed    int
	Groups    int
	Elapsed   time.Duration
	Stats     core.PoolStats
}

// Run submits the workload in groups and waits for every group's completion signal.
// Cancelling ctx stops submission and waiting; tasks already queued keep running.
func Run(ctx context.Context, p *core.WorkStealingPool, w Workload, logger core.Logger) (Summary, error) {
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	batch := max(w.Burst, 1)

	var limiter *rate.Limiter
	if w.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(w.Rate), batch)
	}

	summary := Summary{RunID: ulid.Make().String()}
	logger.Info("bench started",
		core.F("run", summary.RunID), core.F("tasks", w.Tasks), core.F("rate", w.Rate), core.F("skew", w.Skew))

	start := time.Now()
	signals := make([]*core.CompletionSignal, 0, w.Tasks/batch+1)

	for next := 0; next < w.Tasks; next += batch {
		n := min(batch, w.Tasks-next)
		if limiter != nil {
			if err := limiter.WaitN(ctx, n); err != nil {
				return summary, fmt.Errorf("bench submission interrupted: %w", err)
			}
		}

		tasks := make([]core.Task, n)
		for i := range tasks {
			tasks[i] = w.task(next + i)
		}
		signal, err := p.EnqueueGroup(tasks...)
		if err != nil {
			return summary, fmt.Errorf("submit group at task %d: %w", next, err)
		}
		signals = append(signals, signal)
		summary.Submitted += n
	}
	summary.Groups = len(signals)

	for _, s := range signals {
		if err := s.WaitContext(ctx); err != nil {
			return summary, fmt.Errorf("bench wait interrupted: %w", err)
		}
		summary.Failed += s.Failed()
	}

	summary.Elapsed = time.Since(start)
	summary.Stats = p.Stats()
	logger.Info("bench finished",
		core.F("run", summary.RunID), core.F("elapsed", summary.Elapsed.String()),
		core.F("failed", summary.Failed), core.F("stolen", summary.Stats.Stolen))
	return summary, nil
}

// task builds the i-th task. Failures are spread evenly by index.
func (w Workload) task(i int) core.Task {
	d := w.TaskDuration
	if w.Skew && i%10 == 0 {
		d *= slowFactor
	}
	fail := w.FailureRatio > 0 && float64(i%100) < w.FailureRatio*100

	return func(ctx context.Context) error {
		if d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		if fail {
			return errInjected
		}
		return nil
	}
}
