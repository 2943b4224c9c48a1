package stealpool

import (
	"sync"

	"github.com/Swind/go-stealpool/core"
)

// =============================================================================
// Global Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *core.WorkStealingPool
	globalMu   sync.Mutex
)

// InitGlobalPool initializes the global pool with the specified number of workers.
// The pool is running when it returns. Repeated calls are no-ops.
func InitGlobalPool(workers int, opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return nil // Already initialized
	}

	opts = append([]Option{core.WithID("global-pool")}, opts...)
	p, err := core.NewWorkStealingPool(workers, opts...)
	if err != nil {
		return err
	}
	globalPool = p
	return nil
}

// GlobalPool returns the global pool instance.
// It panics if InitGlobalPool has not been called.
func GlobalPool() *WorkStealingPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool gracefully stops the global pool.
// A later InitGlobalPool creates a fresh one.
func ShutdownGlobalPool() {
	globalMu.Lock()
	p := globalPool
	globalPool = nil
	globalMu.Unlock()

	if p != nil {
		p.Shutdown()
	}
}
