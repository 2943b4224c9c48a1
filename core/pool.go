package core

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

const (
	// maxWorkers is the maximum allowed worker count.
	// Values higher than this could lead to excessive goroutine creation and memory exhaustion.
	maxWorkers = 10000

	rejectReasonStopped = "shutting down"
)

// noCopy may be embedded into structs which must not be copied after first use.
// See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// WorkStealingPool runs tasks on a fixed set of worker goroutines.
// Each worker owns a queue; submissions go to the least-loaded queue and
// idle workers steal from the others.
type WorkStealingPool struct {
	noCopy noCopy

	id      string
	config  *PoolConfig
	workers []*worker
	load    *loadIndex
	wake    chan struct{}
	history *executionHistory

	// stopCtx is cancelled when a stop is requested; idle workers wait on it.
	stopCtx    context.Context
	stopCancel context.CancelFunc
	// taskCtx is handed to tasks and only cancelled once they can no longer run.
	taskCtx    context.Context
	taskCancel context.CancelFunc

	// submitMu orders submissions against the stop flag: submitters hold it
	// shared, Shutdown takes it exclusively to flip stopping.
	submitMu sync.RWMutex
	stopping atomic.Bool
	forced   atomic.Bool
	running  atomic.Bool
	// stopStarted is claimed by the first stop call; stopped closes once every worker exited.
	stopStarted atomic.Bool
	stopped     chan struct{}

	continuousMu sync.Mutex
	continuous   map[TaskID]*ContinuousHandle

	// Counted for every non-continuous handle from push until run or discard.
	inFlight atomic.Int64
	idleMu   sync.Mutex
	idleCh   chan struct{}

	metricActive   atomic.Int32
	metricExecuted atomic.Int64
	metricStolen   atomic.Int64
	metricFailed   atomic.Int64
	metricRejected atomic.Int64
}

// NewWorkStealingPool creates a pool and starts its workers before returning.
// workers <= 0 uses runtime.NumCPU().
func NewWorkStealingPool(workers int, opts ...Option) (*WorkStealingPool, error) {
	config := DefaultPoolConfig()
	for _, opt := range opts {
		opt(config)
	}
	return NewWorkStealingPoolWithConfig(workers, config)
}

// NewWorkStealingPoolWithConfig creates a pool using an explicit config.
// A nil config uses DefaultPoolConfig().
func NewWorkStealingPoolWithConfig(workers int, config *PoolConfig) (*WorkStealingPool, error) {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	if workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidWorkerCount, workers, maxWorkers)
	}
	if config == nil {
		config = DefaultPoolConfig()
	}
	config.applyDefaults()

	p := &WorkStealingPool{
		id:         config.ID,
		config:     config,
		workers:    make([]*worker, workers),
		load:       newLoadIndex(workers),
		wake:       make(chan struct{}, workers),
		history:    newExecutionHistory(config.HistoryCapacity),
		continuous: make(map[TaskID]*ContinuousHandle),
		stopped:    make(chan struct{}),
	}
	p.load.onUnderflow = func(worker, pending int) {
		p.config.Logger.Warn("queue load count went negative",
			F("pool", p.id), F("worker", worker), F("pending", pending))
	}
	p.stopCtx, p.stopCancel = context.WithCancel(context.Background())
	p.taskCtx, p.taskCancel = context.WithCancel(context.Background())

	for i := range workers {
		p.workers[i] = newWorker(i, p)
	}

	p.running.Store(true)
	for _, w := range p.workers {
		go w.loop()
	}

	p.config.Logger.Info("pool started", F("pool", p.id), F("workers", workers))
	return p, nil
}

// ID returns the ID of the pool
func (p *WorkStealingPool) ID() string {
	return p.id
}

// Size returns the configured worker count. It is not a load metric.
func (p *WorkStealingPool) Size() int {
	return len(p.workers)
}

// IsRunning reports whether the pool still accepts tasks.
func (p *WorkStealingPool) IsRunning() bool {
	return p.running.Load() && !p.stopping.Load()
}

// =============================================================================
// Submission
// =============================================================================

// EnqueueDetached submits a fire-and-forget task.
// Its result is discarded; failures go to the configured ErrorHandler.
func (p *WorkStealingPool) EnqueueDetached(task Task) error {
	return p.EnqueueDetachedNamed("", task)
}

// EnqueueDetachedNamed is EnqueueDetached with a name used in execution history.
func (p *WorkStealingPool) EnqueueDetachedNamed(name string, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	h := p.newHandle(taskKindDetached, resolveTaskName(task, name))
	h.run = func(ctx context.Context, info execInfo) error {
		err := invokeTask(ctx, task)
		if err != nil {
			p.reportError(ctx, info.workerID, h.id, err)
		}
		return err
	}
	h.discard = func(error) {}
	return p.submit(h)
}

// EnqueueGroup submits tasks as one group sharing a single completion signal.
// Either every task is queued or, on error, none is.
func (p *WorkStealingPool) EnqueueGroup(tasks ...Task) (*CompletionSignal, error) {
	for _, task := range tasks {
		if task == nil {
			return nil, ErrNilTask
		}
	}

	signal := newCompletionSignal(len(tasks))
	handles := make([]*taskHandle, len(tasks))
	for i, task := range tasks {
		h := p.newHandle(taskKindGroup, resolveTaskName(task, ""))
		h.run = func(ctx context.Context, info execInfo) error {
			err := invokeTask(ctx, task)
			if err != nil {
				p.reportError(ctx, info.workerID, h.id, err)
			}
			signal.memberDone(err)
			return err
		}
		h.discard = signal.memberDone
		handles[i] = h
		signal.ids[i] = h.id
	}

	if err := p.submit(handles...); err != nil {
		return nil, err
	}
	return signal, nil
}

func (p *WorkStealingPool) newHandle(kind taskKind, name string) *taskHandle {
	return &taskHandle{id: GenerateTaskID(), name: name, kind: kind}
}

// submit routes each handle to the least-loaded queue and wakes one idle worker per handle.
func (p *WorkStealingPool) submit(handles ...*taskHandle) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.stopping.Load() {
		p.metricRejected.Add(int64(len(handles)))
		for range handles {
			p.config.RejectedTaskHandler.HandleRejectedTask(p.id, rejectReasonStopped)
			p.config.Metrics.RecordTaskRejected(p.id, rejectReasonStopped)
		}
		return ErrPoolStopped
	}

	for _, h := range handles {
		if h.kind != taskKindContinuous {
			p.inFlight.Add(1)
		}
		target := p.load.acquire()
		p.workers[target].queue.PushBack(h)
		p.config.Metrics.RecordQueueDepth(p.id, target, p.load.pending(target))
		p.notifyOne()
	}
	return nil
}

func (p *WorkStealingPool) notifyOne() {
	select {
	case p.wake <- struct{}{}:
	default:
		// Every worker already has a pending wakeup.
	}
}

// =============================================================================
// Cancellation
// =============================================================================

// Cancel removes a task that has not been claimed by a worker yet.
// Its future resolves with ErrTaskCancelled; a group member counts as failed.
// Returns false if the task already started, finished, or is unknown.
func (p *WorkStealingPool) Cancel(id TaskID) bool {
	for _, w := range p.workers {
		h, ok := w.queue.Remove(id)
		if !ok {
			continue
		}
		p.load.add(w.id, -1)
		p.config.Logger.Debug("task cancelled", F("pool", p.id), F("task", id.String()))
		p.discardHandle(h, ErrTaskCancelled)
		return true
	}
	return false
}

// ClearTasks discards every queued task and returns how many were removed.
// Running tasks are not affected.
func (p *WorkStealingPool) ClearTasks() int {
	return p.clearQueues(ErrTaskCancelled)
}

func (p *WorkStealingPool) clearQueues(reason error) int {
	cleared := 0
	for _, w := range p.workers {
		drained := w.queue.Clear()
		if len(drained) == 0 {
			continue
		}
		p.load.add(w.id, -len(drained))
		for _, h := range drained {
			p.discardHandle(h, reason)
		}
		cleared += len(drained)
	}
	return cleared
}

func (p *WorkStealingPool) discardHandle(h *taskHandle, reason error) {
	defer p.handleDone(h)
	defer func() {
		if r := recover(); r != nil {
			p.config.Logger.Error("discard callback panicked",
				F("pool", p.id), F("task", h.id.String()), F("panic", r))
		}
	}()
	h.discard(reason)
}

// =============================================================================
// Waiting
// =============================================================================

// WaitForTasks blocks until no task is queued or running.
// Continuous tasks are not counted.
func (p *WorkStealingPool) WaitForTasks(ctx context.Context) error {
	for {
		p.idleMu.Lock()
		if p.inFlight.Load() == 0 {
			p.idleMu.Unlock()
			return nil
		}
		if p.idleCh == nil {
			p.idleCh = make(chan struct{})
		}
		ch := p.idleCh
		p.idleMu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *WorkStealingPool) handleDone(h *taskHandle) {
	if h.kind == taskKindContinuous {
		return
	}
	if p.inFlight.Add(-1) != 0 {
		return
	}
	p.idleMu.Lock()
	if p.idleCh != nil {
		close(p.idleCh)
		p.idleCh = nil
	}
	p.idleMu.Unlock()
}

// =============================================================================
// Shutdown
// =============================================================================

// Shutdown stops the pool gracefully: it refuses new tasks, stops continuous
// tasks, lets every worker drain its own queue and joins all workers.
// Repeated calls wait for the first one to finish. A task that wants to stop
// its own pool must use ShutdownContext with its context instead.
func (p *WorkStealingPool) Shutdown() {
	p.stop(false, nil)
}

// ShutdownContext is Shutdown for callers that may be running inside a task.
// When ctx is the context of a task running on this pool, every other worker
// is joined and the calling worker exits after its task returns.
func (p *WorkStealingPool) ShutdownContext(ctx context.Context) {
	p.stop(false, p.callingWorker(ctx))
}

// Close calls Shutdown. It always returns nil.
func (p *WorkStealingPool) Close() error {
	p.Shutdown()
	return nil
}

// ShutdownNow stops the pool without draining: queued tasks are discarded
// with ErrPoolStopped and running tasks see their context cancelled.
// Returns the number of discarded tasks.
func (p *WorkStealingPool) ShutdownNow() int {
	return p.stop(true, nil)
}

// ShutdownNowContext is ShutdownNow for callers that may be running inside a task.
func (p *WorkStealingPool) ShutdownNowContext(ctx context.Context) int {
	return p.stop(true, p.callingWorker(ctx))
}

// callingWorker returns the worker of this pool whose task owns ctx, if any.
func (p *WorkStealingPool) callingWorker(ctx context.Context) *worker {
	if ctx == nil {
		return nil
	}
	w, ok := ctx.Value(workerCtxKey{}).(*worker)
	if !ok || w.pool != p {
		return nil
	}
	return w
}

// stop runs the shutdown sequence once. caller is the worker running the
// requesting task, or nil; it is never joined.
func (p *WorkStealingPool) stop(force bool, caller *worker) int {
	if !p.stopStarted.CompareAndSwap(false, true) {
		if caller == nil {
			<-p.stopped
		}
		return 0
	}

	p.submitMu.Lock()
	p.forced.Store(force)
	p.stopping.Store(true)
	p.submitMu.Unlock()

	p.config.Logger.Info("pool stopping", F("pool", p.id), F("force", force))

	p.stopAllContinuous()
	if force {
		p.taskCancel()
	}
	p.stopCancel()

	discarded := 0
	if force {
		discarded = p.clearQueues(ErrPoolStopped)
		if discarded > 0 {
			p.config.Logger.Warn("queued tasks discarded", F("pool", p.id), F("count", discarded))
		}
	}

	for _, w := range p.workers {
		if w != caller {
			<-w.done
		}
	}

	if caller != nil {
		p.config.Logger.Warn("pool stopped from inside a task; calling worker exits after it returns",
			F("pool", p.id), F("worker", caller.id))
		go func() {
			<-caller.done
			p.finishStop()
		}()
		return discarded
	}
	p.finishStop()
	return discarded
}

func (p *WorkStealingPool) finishStop() {
	p.taskCancel()
	p.running.Store(false)
	p.config.Logger.Info("pool stopped", F("pool", p.id),
		F("executed", p.metricExecuted.Load()), F("stolen", p.metricStolen.Load()))
	close(p.stopped)
}

// =============================================================================
// Observability
// =============================================================================

// QueuedTaskCount returns the number of tasks waiting in all queues.
func (p *WorkStealingPool) QueuedTaskCount() int {
	return p.load.total()
}

// ActiveTaskCount returns the number of tasks currently executing.
func (p *WorkStealingPool) ActiveTaskCount() int {
	return int(p.metricActive.Load())
}

// Stats returns current observability data for this pool.
func (p *WorkStealingPool) Stats() PoolStats {
	stats := PoolStats{
		ID:        p.id,
		Workers:   len(p.workers),
		Active:    p.ActiveTaskCount(),
		Executed:  p.metricExecuted.Load(),
		Stolen:    p.metricStolen.Load(),
		Failed:    p.metricFailed.Load(),
		Rejected:  p.metricRejected.Load(),
		Running:   p.IsRunning(),
		PerWorker: make([]WorkerStats, len(p.workers)),
	}
	for i, w := range p.workers {
		depth := p.load.pending(i)
		stats.Queued += depth
		stats.PerWorker[i] = WorkerStats{
			ID:         i,
			QueueDepth: depth,
			Executed:   w.executed.Load(),
			Stolen:     w.stolen.Load(),
		}
	}
	return stats
}

// RecentTasks returns completed task execution records in newest-first order.
func (p *WorkStealingPool) RecentTasks(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}

// =============================================================================
// Helpers
// =============================================================================

func (p *WorkStealingPool) reportError(ctx context.Context, workerID int, id TaskID, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.config.Logger.Error("error handler panicked",
				F("pool", p.id), F("task", id.String()), F("panic", r))
		}
	}()
	p.config.ErrorHandler.HandleTaskError(ctx, p.id, workerID, id, err)
}

// invokeTask runs task and converts a panic into a *PanicError.
func invokeTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
