package core

import (
	"github.com/google/uuid"
)

// PoolConfig holds configuration options for WorkStealingPool.
// All handlers are optional; if not provided, default implementations will be used.
type PoolConfig struct {
	// ID names the pool in logs and metrics. Defaults to "pool-<uuid>".
	ID string

	// Logger receives lifecycle and scheduling events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records task execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// ErrorHandler observes failures of detached tasks and group members.
	// Defaults to NoOpErrorHandler, i.e. such errors are discarded.
	ErrorHandler ErrorHandler

	// RejectedTaskHandler is called when a submission is refused. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// HistoryCapacity bounds the number of execution records kept for RecentTasks.
	HistoryCapacity int

	// WorkerInit runs on each worker goroutine before it starts taking tasks.
	WorkerInit func(workerID int)
}

// DefaultPoolConfig returns a config with default handlers.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Logger:              &NoOpLogger{},
		Metrics:             &NilMetrics{},
		ErrorHandler:        &NoOpErrorHandler{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
		HistoryCapacity:     defaultTaskHistoryCapacity,
	}
}

func (c *PoolConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "pool-" + uuid.NewString()
	}
	if c.Logger == nil {
		c.Logger = &NoOpLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = &NoOpErrorHandler{}
	}
	if c.RejectedTaskHandler == nil {
		c.RejectedTaskHandler = &DefaultRejectedTaskHandler{}
	}
	if c.HistoryCapacity < 1 {
		c.HistoryCapacity = defaultTaskHistoryCapacity
	}
}

// Option customizes a PoolConfig.
type Option func(*PoolConfig)

func WithID(id string) Option {
	return func(c *PoolConfig) { c.ID = id }
}

func WithLogger(l Logger) Option {
	return func(c *PoolConfig) { c.Logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(c *PoolConfig) { c.Metrics = m }
}

// WithErrorHandler installs an observer for detached and group task failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *PoolConfig) { c.ErrorHandler = h }
}

func WithRejectedTaskHandler(h RejectedTaskHandler) Option {
	return func(c *PoolConfig) { c.RejectedTaskHandler = h }
}

func WithHistoryCapacity(n int) Option {
	return func(c *PoolConfig) { c.HistoryCapacity = n }
}

// WithWorkerInit runs fn on every worker goroutine before its loop starts.
func WithWorkerInit(fn func(workerID int)) Option {
	return func(c *PoolConfig) { c.WorkerInit = fn }
}
