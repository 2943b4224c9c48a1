package core

import (
	"sync"
)

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// =============================================================================
// taskQueue: per-worker double-ended queue
// =============================================================================

// taskQueue holds one worker's pending handles.
// The owner treats the back as a stack; thieves work from the front.
// Every operation takes the queue's own lock and none holds it while a task runs.
type taskQueue struct {
	mu      sync.Mutex
	handles []*taskHandle
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		handles: make([]*taskHandle, 0, defaultQueueCap),
	}
}

// PushBack appends a handle at the owner end.
func (q *taskQueue) PushBack(h *taskHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handles = append(q.handles, h)
}

// PushFront inserts a handle at the thief end.
// Used to hand back a handle that was dequeued but could not be run.
func (q *taskQueue) PushFront(h *taskHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handles = append(q.handles, nil)
	copy(q.handles[1:], q.handles)
	q.handles[0] = h
}

// PopBack removes the most recently pushed handle. Never blocks.
func (q *taskQueue) PopBack() (*taskHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.handles)
	if n == 0 {
		return nil, false
	}

	h := q.handles[n-1]
	// Zero out the slot to prevent memory leak
	q.handles[n-1] = nil
	q.handles = q.handles[:n-1]
	q.maybeCompactLocked()

	return h, true
}

// PopFront removes the oldest handle.
func (q *taskQueue) PopFront() (*taskHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.handles) == 0 {
		return nil, false
	}

	h := q.handles[0]
	q.handles[0] = nil
	q.handles = q.handles[1:]
	q.maybeCompactLocked()

	return h, true
}

// CopyFrontAndRotateToBack returns the front handle without removing it and
// rotates the queue so that handle becomes the back element.
// The caller must Erase the handle's ID before running it.
func (q *taskQueue) CopyFrontAndRotateToBack() (*taskHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.copyFrontAndRotateLocked()
}

// TryCopyFrontAndRotateToBack is CopyFrontAndRotateToBack acquired with TryLock.
// locked is false when the queue was busy; the queue is then left untouched.
func (q *taskQueue) TryCopyFrontAndRotateToBack() (h *taskHandle, ok bool, locked bool) {
	if !q.TryLock() {
		return nil, false, false
	}
	defer q.Unlock()
	h, ok = q.copyFrontAndRotateLocked()
	return h, ok, true
}

func (q *taskQueue) copyFrontAndRotateLocked() (*taskHandle, bool) {
	n := len(q.handles)
	if n == 0 {
		return nil, false
	}

	front := q.handles[0]
	copy(q.handles, q.handles[1:])
	q.handles[n-1] = front

	return front, true
}

// Erase removes the handle with the given ID and reports whether it was present.
func (q *taskQueue) Erase(id TaskID) bool {
	_, ok := q.Remove(id)
	return ok
}

// Remove is Erase that also returns the removed handle.
func (q *taskQueue) Remove(id TaskID) (*taskHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, h := range q.handles {
		if h.id != id {
			continue
		}
		n := len(q.handles)
		copy(q.handles[i:], q.handles[i+1:])
		q.handles[n-1] = nil
		q.handles = q.handles[:n-1]
		q.maybeCompactLocked()
		return h, true
	}
	return nil, false
}

// TryLock attempts to take the queue lock without blocking.
func (q *taskQueue) TryLock() bool {
	return q.mu.TryLock()
}

// Unlock releases a lock taken with TryLock.
// Every other method locks and unlocks on its own.
func (q *taskQueue) Unlock() {
	q.mu.Unlock()
}

// Len is a snapshot; the value may change as soon as it is returned.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.handles)
}

func (q *taskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes and returns every queued handle.
func (q *taskQueue) Clear() []*taskHandle {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.handles) == 0 {
		return nil
	}
	drained := q.handles
	// Create a new slice to release all handle references
	q.handles = make([]*taskHandle, 0, defaultQueueCap)
	return drained
}

func (q *taskQueue) maybeCompactLocked() {
	n := len(q.handles)
	c := cap(q.handles)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.handles = make([]*taskHandle, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*taskHandle, n, newCap)
	copy(newSlice, q.handles)
	q.handles = newSlice
}
