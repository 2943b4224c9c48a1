package stealpool

import (
	"context"

	"github.com/Swind/go-stealpool/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the stealpool package for most use cases.

// Task is the unit of work
type Task = core.Task

// TaskID identifies a submitted task
type TaskID = core.TaskID

// WorkStealingPool is the work-stealing execution engine
type WorkStealingPool = core.WorkStealingPool

// PoolConfig holds pool configuration
type PoolConfig = core.PoolConfig

// Option configures a pool
type Option = core.Option

// Future is the pending result of a task
type Future[R any] = core.Future[R]

// TaskWithResult is a callable that produces a value
type TaskWithResult[R any] = core.TaskWithResult[R]

// CompletionSignal is released when a task group finished
type CompletionSignal = core.CompletionSignal

// ContinuousHandle controls a function started with EnqueueContinuous
type ContinuousHandle = core.ContinuousHandle

// PanicError wraps a recovered task panic
type PanicError = core.PanicError

// PoolStats and TaskExecutionRecord are observability snapshots
type (
	PoolStats           = core.PoolStats
	WorkerStats         = core.WorkerStats
	TaskExecutionRecord = core.TaskExecutionRecord
)

// Logger, Metrics and the handler interfaces
type (
	Logger              = core.Logger
	Metrics             = core.Metrics
	ErrorHandler        = core.ErrorHandler
	RejectedTaskHandler = core.RejectedTaskHandler
)

// Sentinel errors
var (
	ErrPoolStopped        = core.ErrPoolStopped
	ErrInvalidWorkerCount = core.ErrInvalidWorkerCount
	ErrNilTask            = core.ErrNilTask
	ErrTaskCancelled      = core.ErrTaskCancelled
)

// Convenience functions for configuring pools
var (
	DefaultPoolConfig       = core.DefaultPoolConfig
	WithID                  = core.WithID
	WithLogger              = core.WithLogger
	WithMetrics             = core.WithMetrics
	WithErrorHandler        = core.WithErrorHandler
	WithRejectedTaskHandler = core.WithRejectedTaskHandler
	WithHistoryCapacity     = core.WithHistoryCapacity
	WithWorkerInit          = core.WithWorkerInit
)

// New creates and starts a pool. workers <= 0 uses runtime.NumCPU().
func New(workers int, opts ...Option) (*WorkStealingPool, error) {
	return core.NewWorkStealingPool(workers, opts...)
}

// Enqueue submits fn to p and returns a future for its result.
func Enqueue[R any](p *WorkStealingPool, fn TaskWithResult[R]) (*Future[R], error) {
	return core.Enqueue(p, fn)
}

// EnqueueArg submits fn bound to arg, captured by value at submission time.
func EnqueueArg[A, R any](p *WorkStealingPool, fn func(ctx context.Context, arg A) (R, error), arg A) (*Future[R], error) {
	return core.EnqueueArg(p, fn, arg)
}
