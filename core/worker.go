package core

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// workerCtxKey tags task contexts with the worker running them.
type workerCtxKey struct{}

// worker owns one queue and runs the execute / steal / idle cycle.
type worker struct {
	id    int
	pool  *WorkStealingPool
	queue *taskQueue
	// ctx is the pool's task context tagged with this worker.
	ctx  context.Context
	done chan struct{}

	// lastVictim is where the next steal scan starts from (exclusive).
	// Only touched by the worker's own goroutine.
	lastVictim int

	executed atomic.Int64
	stolen   atomic.Int64
}

func newWorker(id int, p *WorkStealingPool) *worker {
	w := &worker{
		id:         id,
		pool:       p,
		queue:      newTaskQueue(),
		done:       make(chan struct{}),
		lastVictim: id,
	}
	w.ctx = context.WithValue(p.taskCtx, workerCtxKey{}, w)
	return w
}

// loop is the main loop for each worker
func (w *worker) loop() {
	p := w.pool
	defer close(w.done)

	if p.config.WorkerInit != nil {
		p.config.WorkerInit(w.id)
	}

	for {
		if p.stopping.Load() {
			if !p.forced.Load() {
				w.drain()
			}
			return
		}

		if h, ok := w.popOwn(); ok {
			w.execute(h, execInfo{workerID: w.id})
			continue
		}

		h, retry := w.steal()
		if h != nil {
			w.execute(h, execInfo{workerID: w.id, stolen: true})
			continue
		}
		if retry {
			// A busy or racing queue may still hold work; scan again instead of sleeping on it.
			runtime.Gosched()
			continue
		}

		select {
		case <-p.wake:
		case <-p.stopCtx.Done():
		}
	}
}

// drain runs whatever is left in the worker's own queue. No steals are started.
func (w *worker) drain() {
	for {
		h, ok := w.popOwn()
		if !ok {
			return
		}
		if w.pool.forced.Load() {
			w.pool.discardHandle(h, ErrPoolStopped)
			continue
		}
		w.execute(h, execInfo{workerID: w.id})
	}
}

func (w *worker) popOwn() (*taskHandle, bool) {
	h, ok := w.queue.PopBack()
	if !ok {
		return nil, false
	}
	p := w.pool
	p.load.add(w.id, -1)
	p.config.Metrics.RecordQueueDepth(p.id, w.id, p.load.pending(w.id))
	return h, true
}

// steal scans the other queues once, starting after the last successful victim.
// retry reports that some queue was skipped or lost a race, so work may still exist.
func (w *worker) steal() (h *taskHandle, retry bool) {
	p := w.pool
	n := len(p.workers)
	if n < 2 {
		return nil, false
	}

	for i := 1; i <= n; i++ {
		victim := (w.lastVictim + i) % n
		if victim == w.id {
			continue
		}
		vq := p.workers[victim].queue

		candidate, ok, locked := vq.TryCopyFrontAndRotateToBack()
		if !locked {
			retry = true
			continue
		}
		if !ok {
			continue
		}
		// The candidate is still queued; only the goroutine that erases it may run it.
		if !vq.Erase(candidate.id) {
			retry = true
			continue
		}

		p.load.add(victim, -1)
		remaining := p.load.pending(victim)
		p.config.Metrics.RecordQueueDepth(p.id, victim, remaining)
		p.config.Metrics.RecordTaskStolen(p.id, w.id, victim)
		p.config.Logger.Debug("task stolen",
			F("pool", p.id), F("thief", w.id), F("victim", victim), F("task", candidate.id.String()))

		w.lastVictim = victim
		w.stolen.Add(1)
		p.metricStolen.Add(1)
		if remaining > 0 {
			// Spread the backlog: another idle worker can steal the rest.
			p.notifyOne()
		}
		return candidate, false
	}
	return nil, retry
}

func (w *worker) execute(h *taskHandle, info execInfo) {
	p := w.pool
	p.metricActive.Add(1)
	startedAt := time.Now()

	var err error
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				// run already recovers task panics; this only guards the pool's own wrappers.
				panicked = true
				err = &PanicError{Value: r}
				p.config.Logger.Error("task wrapper panicked",
					F("pool", p.id), F("worker", w.id), F("task", h.id.String()), F("panic", r))
			}
		}()
		err = h.run(w.ctx, info)
	}()

	finishedAt := time.Now()
	duration := finishedAt.Sub(startedAt)
	p.metricActive.Add(-1)

	if err != nil {
		if _, ok := err.(*PanicError); ok {
			panicked = true
		}
		p.metricFailed.Add(1)
		p.config.Metrics.RecordTaskFailure(p.id, failureReason(err))
	}
	p.config.Metrics.RecordTaskDuration(p.id, duration)
	p.history.Add(TaskExecutionRecord{
		TaskID:     h.id,
		Name:       h.name,
		Kind:       h.kind.String(),
		WorkerID:   w.id,
		Stolen:     info.stolen,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Failed:     err != nil,
		Panicked:   panicked,
	})

	w.executed.Add(1)
	p.metricExecuted.Add(1)
	p.handleDone(h)
}
