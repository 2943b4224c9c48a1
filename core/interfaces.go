package core

import (
	"context"
	"time"
)

// =============================================================================
// ErrorHandler: observer for failures nobody else will see
// =============================================================================

// ErrorHandler is called when a detached task or a group member fails.
// Future-returning submissions deliver their error through the future instead.
//
// Implementations should be thread-safe as they may be called concurrently from workers.
type ErrorHandler interface {
	// HandleTaskError is called after the task returned an error or panicked.
	//
	// Parameters:
	// - ctx: The pool context the task ran with
	// - poolID: The ID of the pool
	// - workerID: The worker that executed the task
	// - taskID: The failed task
	// - err: The returned error, or a *PanicError for panics
	HandleTaskError(ctx context.Context, poolID string, workerID int, taskID TaskID, err error)
}

// NoOpErrorHandler discards task errors. It is the default.
type NoOpErrorHandler struct{}

// HandleTaskError is a no-op.
func (h *NoOpErrorHandler) HandleTaskError(ctx context.Context, poolID string, workerID int, taskID TaskID, err error) {
}

// LoggingErrorHandler reports task errors through a Logger.
type LoggingErrorHandler struct {
	Logger Logger
}

// HandleTaskError logs the failure at error level.
func (h *LoggingErrorHandler) HandleTaskError(ctx context.Context, poolID string, workerID int, taskID TaskID, err error) {
	if h.Logger == nil {
		return
	}
	fields := []Field{F("pool", poolID), F("worker", workerID), F("task", taskID.String()), F("error", err)}
	if pe, ok := err.(*PanicError); ok {
		fields = append(fields, F("stack", string(pe.Stack)))
	}
	h.Logger.Error("task failed", fields...)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, poolID string, workerID int, taskID TaskID, err error)

func (f ErrorHandlerFunc) HandleTaskError(ctx context.Context, poolID string, workerID int, taskID TaskID, err error) {
	f(ctx, poolID, workerID, taskID, err)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting pool metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting task execution performance.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(poolID string, duration time.Duration)

	// RecordTaskFailure records a task that returned an error or panicked.
	// reason is "error" or "panic".
	RecordTaskFailure(poolID string, reason string)

	// RecordQueueDepth records the depth of one worker's queue after it changed.
	RecordQueueDepth(poolID string, workerID int, depth int)

	// RecordTaskRejected records that a submission was refused (e.g., during shutdown).
	RecordTaskRejected(poolID string, reason string)

	// RecordTaskStolen records a task moved from victim's queue to thief.
	RecordTaskStolen(poolID string, thiefID int, victimID int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(poolID string, duration time.Duration)  {}
func (m *NilMetrics) RecordTaskFailure(poolID string, reason string)            {}
func (m *NilMetrics) RecordQueueDepth(poolID string, workerID int, depth int)   {}
func (m *NilMetrics) RecordTaskRejected(poolID string, reason string)           {}
func (m *NilMetrics) RecordTaskStolen(poolID string, thiefID int, victimID int) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a submission is refused.
// The submitter also receives ErrPoolStopped synchronously.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(poolID string, reason string)
}

// DefaultRejectedTaskHandler ignores rejections; the caller already got an error.
type DefaultRejectedTaskHandler struct{}

func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolID string, reason string) {}

// LoggingRejectedTaskHandler logs rejections at warn level.
type LoggingRejectedTaskHandler struct {
	Logger Logger
}

func (h *LoggingRejectedTaskHandler) HandleRejectedTask(poolID string, reason string) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn("task rejected", F("pool", poolID), F("reason", reason))
}
