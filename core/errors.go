package core

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolStopped is returned when submitting to a pool that is shutting down or stopped.
	// Queued tasks discarded by ShutdownNow also resolve with it.
	ErrPoolStopped = errors.New("stealpool: pool is stopped")

	// ErrInvalidWorkerCount is returned by NewWorkStealingPool for out-of-range worker counts.
	ErrInvalidWorkerCount = errors.New("stealpool: invalid worker count")

	// ErrNilTask is returned when a nil callable is submitted.
	ErrNilTask = errors.New("stealpool: task must not be nil")

	// ErrTaskCancelled resolves tasks removed by Cancel or ClearTasks before they ran.
	ErrTaskCancelled = errors.New("stealpool: task cancelled before execution")
)

// PanicError carries a panic recovered from a task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stealpool: task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func failureReason(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return "panic"
	}
	return "error"
}
