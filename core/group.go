package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// CompletionSignal is released once every task of a group has finished,
// whether it succeeded, failed, panicked or was discarded.
type CompletionSignal struct {
	done    chan struct{}
	once    sync.Once
	pending atomic.Int64
	failed  atomic.Int64
	ids     []TaskID
}

func newCompletionSignal(size int) *CompletionSignal {
	s := &CompletionSignal{
		done: make(chan struct{}),
		ids:  make([]TaskID, size),
	}
	s.pending.Store(int64(size))
	if size == 0 {
		s.release()
	}
	return s
}

// memberDone is called once per member; the call that brings pending to zero releases the signal.
func (s *CompletionSignal) memberDone(err error) {
	if err != nil {
		s.failed.Add(1)
	}
	if s.pending.Add(-1) == 0 {
		s.release()
	}
}

func (s *CompletionSignal) release() {
	s.once.Do(func() { close(s.done) })
}

// Wait blocks until every member finished.
func (s *CompletionSignal) Wait() {
	<-s.done
}

// WaitContext is Wait bounded by ctx.
func (s *CompletionSignal) WaitContext(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryWait reports whether the signal has been released, without blocking.
func (s *CompletionSignal) TryWait() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the signal is released.
func (s *CompletionSignal) Done() <-chan struct{} {
	return s.done
}

// Failed returns how many members failed, panicked or were discarded so far.
func (s *CompletionSignal) Failed() int {
	return int(s.failed.Load())
}

// Size returns the number of tasks in the group.
func (s *CompletionSignal) Size() int {
	return len(s.ids)
}

// TaskIDs returns the member IDs in submission order.
func (s *CompletionSignal) TaskIDs() []TaskID {
	out := make([]TaskID, len(s.ids))
	copy(out, s.ids)
	return out
}
