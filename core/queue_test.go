package core

import (
	"sync"
	"testing"
)

func newTestHandle() *taskHandle {
	return &taskHandle{id: GenerateTaskID(), discard: func(error) {}}
}

func handleIDs(q *taskQueue) []TaskID {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]TaskID, len(q.handles))
	for i, h := range q.handles {
		ids[i] = h.id
	}
	return ids
}

// TestTaskQueue_PopBackIsLIFO verifies the owner path behaves like a stack
// Given: A queue with three handles pushed to the back
// When: PopBack is called repeatedly
// Then: Handles come out newest first, then the queue reports empty
func TestTaskQueue_PopBackIsLIFO(t *testing.T) {
	// Arrange
	q := newTaskQueue()
	a, b, c := newTestHandle(), newTestHandle(), newTestHandle()
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	// Act and Assert
	for i, want := range []*taskHandle{c, b, a} {
		got, ok := q.PopBack()
		if !ok {
			t.Fatalf("Step %d: PopBack() on non-empty queue returned ok=false", i)
		}
		if got != want {
			t.Errorf("Step %d: PopBack() = %s, want %s", i, got.id, want.id)
		}
	}
	if _, ok := q.PopBack(); ok {
		t.Error("PopBack() on empty queue returned ok=true")
	}
}

// TestTaskQueue_PushFrontAndPopFront verifies the thief end
// Given: A queue with one handle at the back and one pushed to the front
// When: PopFront is called
// Then: The front-pushed handle is returned first
func TestTaskQueue_PushFrontAndPopFront(t *testing.T) {
	q := newTaskQueue()
	back, front := newTestHandle(), newTestHandle()
	q.PushBack(back)
	q.PushFront(front)

	got, ok := q.PopFront()
	if !ok || got != front {
		t.Fatalf("PopFront() = %v, %v; want front handle", got, ok)
	}
	got, ok = q.PopFront()
	if !ok || got != back {
		t.Fatalf("PopFront() = %v, %v; want back handle", got, ok)
	}
	if _, ok := q.PopFront(); ok {
		t.Error("PopFront() on empty queue returned ok=true")
	}
}

// TestTaskQueue_CopyFrontAndRotateToBack verifies the steal primitive
// Given: A queue [a b c]
// When: CopyFrontAndRotateToBack is called
// Then: a is returned, is not removed, and the queue becomes [b c a]
func TestTaskQueue_CopyFrontAndRotateToBack(t *testing.T) {
	// Arrange
	q := newTaskQueue()
	a, b, c := newTestHandle(), newTestHandle(), newTestHandle()
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	// Act
	got, ok := q.CopyFrontAndRotateToBack()

	// Assert
	if !ok || got != a {
		t.Fatalf("CopyFrontAndRotateToBack() = %v, %v; want a", got, ok)
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d after rotate, want 3", q.Len())
	}
	ids := handleIDs(q)
	want := []TaskID{b.id, c.id, a.id}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("queue order = %v, want %v", ids, want)
		}
	}

	// The owner's next PopBack now sees the rotated element
	if popped, _ := q.PopBack(); popped != a {
		t.Errorf("PopBack() after rotate = %s, want %s", popped.id, a.id)
	}
}

// TestTaskQueue_CopyFrontAndRotateToBack_Empty verifies empty queues are left alone
func TestTaskQueue_CopyFrontAndRotateToBack_Empty(t *testing.T) {
	q := newTaskQueue()
	if _, ok := q.CopyFrontAndRotateToBack(); ok {
		t.Error("CopyFrontAndRotateToBack() on empty queue returned ok=true")
	}
	h, ok, locked := q.TryCopyFrontAndRotateToBack()
	if h != nil || ok || !locked {
		t.Errorf("TryCopyFrontAndRotateToBack() = %v, %v, %v; want nil, false, true", h, ok, locked)
	}
}

// TestTaskQueue_TryCopySkipsLockedQueue verifies thieves never block on a busy queue
// Given: A non-empty queue whose lock is held
// When: TryCopyFrontAndRotateToBack is called
// Then: It reports locked=false and the queue order is unchanged
func TestTaskQueue_TryCopySkipsLockedQueue(t *testing.T) {
	q := newTaskQueue()
	a, b := newTestHandle(), newTestHandle()
	q.PushBack(a)
	q.PushBack(b)

	if !q.TryLock() {
		t.Fatal("TryLock() on idle queue = false, want true")
	}
	h, ok, locked := q.TryCopyFrontAndRotateToBack()
	if q.TryLock() {
		t.Error("TryLock() while locked = true, want false")
	}
	q.Unlock()

	if locked || ok || h != nil {
		t.Fatalf("TryCopyFrontAndRotateToBack() while locked = %v, %v, %v; want nil, false, false", h, ok, locked)
	}
	ids := handleIDs(q)
	if ids[0] != a.id || ids[1] != b.id {
		t.Errorf("queue order changed while locked: %v", ids)
	}
}

// TestTaskQueue_Erase verifies removal by ID
// Given: A queue [a b c]
// When: b is erased, then erased again
// Then: The first call succeeds and leaves [a c]; the second is a no-op
func TestTaskQueue_Erase(t *testing.T) {
	q := newTaskQueue()
	a, b, c := newTestHandle(), newTestHandle(), newTestHandle()
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	if !q.Erase(b.id) {
		t.Fatal("Erase(b) = false, want true")
	}
	if q.Erase(b.id) {
		t.Fatal("second Erase(b) = true, want false")
	}
	ids := handleIDs(q)
	if len(ids) != 2 || ids[0] != a.id || ids[1] != c.id {
		t.Errorf("queue after erase = %v, want [%s %s]", ids, a.id, c.id)
	}

	h, ok := q.Remove(c.id)
	if !ok || h != c {
		t.Errorf("Remove(c) = %v, %v; want c, true", h, ok)
	}
}

// TestTaskQueue_Clear verifies every handle is returned and the queue empties
func TestTaskQueue_Clear(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 5; i++ {
		q.PushBack(newTestHandle())
	}

	drained := q.Clear()

	if len(drained) != 5 {
		t.Errorf("len(Clear()) = %d, want 5", len(drained))
	}
	if !q.IsEmpty() {
		t.Error("IsEmpty() = false after Clear()")
	}
	if q.Clear() != nil {
		t.Error("Clear() on empty queue should return nil")
	}
}

// TestTaskQueue_Compaction verifies the backing slice shrinks after a burst drains
// Given: A queue grown well past compactMinCap
// When: Most handles are popped
// Then: Capacity shrinks below the peak
func TestTaskQueue_Compaction(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 1024; i++ {
		q.PushBack(newTestHandle())
	}
	peak := cap(q.handles)

	for i := 0; i < 1000; i++ {
		q.PopBack()
	}

	if cap(q.handles) >= peak {
		t.Errorf("cap after drain = %d, want < %d", cap(q.handles), peak)
	}
	if q.Len() != 24 {
		t.Errorf("Len() = %d, want 24", q.Len())
	}
}

// TestTaskQueue_ConcurrentStealAndPop verifies each handle is claimed exactly once
// Given: A queue with many handles, one owner popping and several thieves stealing
// When: They race until the queue is empty
// Then: Every handle is claimed by exactly one goroutine
func TestTaskQueue_ConcurrentStealAndPop(t *testing.T) {
	// Arrange
	const total = 5000
	q := newTaskQueue()
	for i := 0; i < total; i++ {
		q.PushBack(newTestHandle())
	}

	var mu sync.Mutex
	claims := make(map[TaskID]int, total)
	claim := func(id TaskID) {
		mu.Lock()
		claims[id]++
		mu.Unlock()
	}

	var wg sync.WaitGroup

	// Act - owner
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			h, ok := q.PopBack()
			if !ok {
				return
			}
			claim(h.id)
		}
	}()

	// Act - thieves
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				h, ok, locked := q.TryCopyFrontAndRotateToBack()
				if !locked {
					continue
				}
				if !ok {
					return
				}
				if q.Erase(h.id) {
					claim(h.id)
				}
			}
		}()
	}
	wg.Wait()

	// Assert
	if len(claims) != total {
		t.Fatalf("claimed %d distinct handles, want %d", len(claims), total)
	}
	for id, n := range claims {
		if n != 1 {
			t.Fatalf("%s claimed %d times, want 1", id, n)
		}
	}
}
