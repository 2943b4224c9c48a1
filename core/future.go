package core

import (
	"context"
)

// TaskWithResult is a callable that produces a value.
type TaskWithResult[R any] func(ctx context.Context) (R, error)

// Future is the pending result of a task submitted with Enqueue.
// It is resolved exactly once, either by the task or by cancellation.
type Future[R any] struct {
	id    TaskID
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) resolve(value R, err error) {
	if err != nil {
		var zero R
		value = zero
	}
	f.value = value
	f.err = err
	close(f.done)
}

// ID returns the task ID, usable with WorkStealingPool.Cancel.
func (f *Future[R]) ID() TaskID {
	return f.id
}

// Done is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available.
func (f *Future[R]) Wait() {
	<-f.done
}

// Get blocks until the task finished and returns its value or error.
// A panic inside the task is returned as *PanicError.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetContext is Get bounded by ctx. The task keeps running if ctx expires first.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// TryGet returns the result without blocking; ok is false while the task is pending.
func (f *Future[R]) TryGet() (value R, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero R
		return zero, nil, false
	}
}

// =============================================================================
// Future-returning submission
// =============================================================================

// Enqueue submits fn and returns a future for its result.
// Methods cannot carry type parameters, so this is a package function over the pool.
func Enqueue[R any](p *WorkStealingPool, fn TaskWithResult[R]) (*Future[R], error) {
	return EnqueueNamed(p, "", fn)
}

// EnqueueNamed is Enqueue with a name used in execution history.
func EnqueueNamed[R any](p *WorkStealingPool, name string, fn TaskWithResult[R]) (*Future[R], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	f := newFuture[R]()
	h := p.newHandle(taskKindFuture, resolveTaskName(fn, name))
	f.id = h.id

	h.run = func(ctx context.Context, info execInfo) error {
		var value R
		err := invokeTask(ctx, func(ctx context.Context) error {
			var err error
			value, err = fn(ctx)
			return err
		})
		f.resolve(value, err)
		return err
	}
	h.discard = func(reason error) {
		var zero R
		f.resolve(zero, reason)
	}

	if err := p.submit(h); err != nil {
		return nil, err
	}
	return f, nil
}

// EnqueueArg submits fn bound to arg. arg is captured by value at submission time.
func EnqueueArg[A, R any](p *WorkStealingPool, fn func(ctx context.Context, arg A) (R, error), arg A) (*Future[R], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return EnqueueNamed(p, resolveTaskName(fn, ""), func(ctx context.Context) (R, error) {
		return fn(ctx, arg)
	})
}
