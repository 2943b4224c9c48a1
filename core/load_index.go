package core

import (
	"container/heap"
	"sync"
)

// =============================================================================
// loadIndex: min-heap over per-queue pending counts
// =============================================================================

type loadEntry struct {
	worker  int
	pending int
	index   int // position in the heap
}

// loadHeap implements heap.Interface.
type loadHeap []*loadEntry

func (h loadHeap) Len() int { return len(h) }

// Less orders by pending count, then by worker index so ties always resolve to the lowest index.
func (h loadHeap) Less(i, j int) bool {
	if h[i].pending != h[j].pending {
		return h[i].pending < h[j].pending
	}
	return h[i].worker < h[j].worker
}

func (h loadHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *loadHeap) Push(x interface{}) {
	item := x.(*loadEntry)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *loadHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// loadIndex tracks how many handles each queue holds.
// It has its own lock and is only ever updated after the queue lock is released.
type loadIndex struct {
	mu      sync.Mutex
	heap    loadHeap
	entries []*loadEntry // by worker id

	// onUnderflow is told when a count would drop below zero. Called with mu held.
	onUnderflow func(worker, pending int)
}

func newLoadIndex(workers int) *loadIndex {
	idx := &loadIndex{
		heap:    make(loadHeap, 0, workers),
		entries: make([]*loadEntry, workers),
	}
	for i := range workers {
		e := &loadEntry{worker: i}
		idx.entries[i] = e
		heap.Push(&idx.heap, e)
	}
	return idx
}

// acquire returns the least-loaded worker and counts one more pending handle for it.
// Picking and reserving happen under one lock so a burst spreads across queues.
func (idx *loadIndex) acquire() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e := idx.heap[0]
	e.pending++
	heap.Fix(&idx.heap, e.index)
	return e.worker
}

// add applies delta to a worker's pending count.
func (idx *loadIndex) add(worker, delta int) {
	if delta == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e := idx.entries[worker]
	e.pending += delta
	if e.pending < 0 {
		if idx.onUnderflow != nil {
			idx.onUnderflow(worker, e.pending)
		}
		e.pending = 0
	}
	heap.Fix(&idx.heap, e.index)
}

// pending returns the tracked count for one worker.
func (idx *loadIndex) pending(worker int) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.entries[worker].pending
}

// total returns the sum of all tracked counts.
func (idx *loadIndex) total() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sum := 0
	for _, e := range idx.entries {
		sum += e.pending
	}
	return sum
}
