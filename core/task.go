package core

import (
	"context"
	"strconv"
	"sync/atomic"
)

// Task is the unit of work submitted to a pool.
// A returned error is routed to the future, group or error handler of the submission.
type Task func(ctx context.Context) error

// =============================================================================
// TaskID: monotonically increasing identifier used for lookup and cancellation
// =============================================================================

// TaskID identifies a submitted task. The zero value means "no task".
type TaskID uint64

var lastTaskID atomic.Uint64

// GenerateTaskID returns the next identifier. IDs are unique per process and increase monotonically.
func GenerateTaskID() TaskID {
	return TaskID(lastTaskID.Add(1))
}

// IsZero reports whether the ID is unset.
func (id TaskID) IsZero() bool {
	return id == 0
}

func (id TaskID) String() string {
	return "task-" + strconv.FormatUint(uint64(id), 10)
}

// =============================================================================
// taskHandle: a single-invocation callable plus bookkeeping
// =============================================================================

// execInfo describes where a handle is being executed.
type execInfo struct {
	workerID int
	stolen   bool
}

// taskHandle is what the queues hold. Exactly one of run or discard is ever
// invoked; the pool guarantees this by only executing a handle it removed
// from a queue itself.
type taskHandle struct {
	id   TaskID
	name string
	kind taskKind

	// run executes the task; the returned error has already been delivered
	// to the submitter's channel and is only reported for metrics and history.
	run func(ctx context.Context, info execInfo) error

	// discard resolves the submitter's channel without running the task,
	// e.g. after Cancel, ClearTasks or ShutdownNow.
	discard func(err error)
}

type taskKind int

const (
	taskKindDetached taskKind = iota
	taskKindFuture
	taskKindGroup
	taskKindContinuous
)

func (k taskKind) String() string {
	switch k {
	case taskKindDetached:
		return "detached"
	case taskKindFuture:
		return "future"
	case taskKindGroup:
		return "group"
	case taskKindContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}
