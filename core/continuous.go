package core

import (
	"context"
	"sync"
)

// ContinuousHandle controls a long-running function started with EnqueueContinuous.
type ContinuousHandle struct {
	id     TaskID
	pool   *WorkStealingPool
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// ID returns the task ID of the continuous function.
func (h *ContinuousHandle) ID() TaskID {
	return h.id
}

// Stop asks the function to return by cancelling its context.
// If it has not started yet it is removed from the queue and never runs.
func (h *ContinuousHandle) Stop() {
	h.cancel()
	h.pool.Cancel(h.id)
}

// Done is closed after the function returned or was discarded.
func (h *ContinuousHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until Done is closed.
func (h *ContinuousHandle) Wait() {
	<-h.done
}

func (h *ContinuousHandle) finish() {
	h.once.Do(func() {
		close(h.done)
		h.pool.continuousMu.Lock()
		delete(h.pool.continuous, h.id)
		h.pool.continuousMu.Unlock()
	})
}

// EnqueueContinuous runs fn on a worker until its context is cancelled, either
// by the returned handle's Stop or by pool shutdown. fn is expected to loop and
// return promptly once ctx is done; it occupies its worker for as long as it runs.
func (p *WorkStealingPool) EnqueueContinuous(fn func(ctx context.Context)) (*ContinuousHandle, error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	ctx, cancel := context.WithCancel(p.taskCtx)
	h := p.newHandle(taskKindContinuous, resolveTaskName(fn, ""))
	ch := &ContinuousHandle{
		id:     h.id,
		pool:   p,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	h.run = func(workerCtx context.Context, info execInfo) error {
		defer ch.finish()
		defer cancel()
		runCtx := ctx
		if w, ok := workerCtx.Value(workerCtxKey{}).(*worker); ok {
			runCtx = context.WithValue(ctx, workerCtxKey{}, w)
		}
		err := invokeTask(runCtx, func(ctx context.Context) error {
			fn(ctx)
			return nil
		})
		if err != nil {
			p.reportError(runCtx, info.workerID, h.id, err)
		}
		return err
	}
	h.discard = func(error) {
		cancel()
		ch.finish()
	}

	p.continuousMu.Lock()
	p.continuous[h.id] = ch
	p.continuousMu.Unlock()

	if err := p.submit(h); err != nil {
		p.continuousMu.Lock()
		delete(p.continuous, h.id)
		p.continuousMu.Unlock()
		cancel()
		return nil, err
	}
	return ch, nil
}

// stopAllContinuous cancels every continuous function still registered.
func (p *WorkStealingPool) stopAllContinuous() {
	p.continuousMu.Lock()
	handles := make([]*ContinuousHandle, 0, len(p.continuous))
	for _, h := range p.continuous {
		handles = append(handles, h)
	}
	p.continuousMu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
}
