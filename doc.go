// Package stealpool provides a work-stealing pool of goroutines for Go.
//
// Each worker owns a double-ended queue. Submissions go to the least-loaded
// queue; a worker runs its own newest task first and, when its queue is empty,
// takes the oldest task of another worker. A task is executed at most once.
//
// # Quick Start
//
// Initialize the global pool at application startup:
//
//	stealpool.InitGlobalPool(4) // 4 workers
//	defer stealpool.ShutdownGlobalPool()
//
// Submit work in one of three forms:
//
//	pool := stealpool.GlobalPool()
//
//	// Fire and forget
//	pool.EnqueueDetached(func(ctx context.Context) error {
//		return doWork(ctx)
//	})
//
//	// With a result
//	f, _ := stealpool.Enqueue(pool, func(ctx context.Context) (int, error) {
//		return 42, nil
//	})
//	v, err := f.Get()
//
//	// As a group with one completion signal
//	signal, _ := pool.EnqueueGroup(taskA, taskB, taskC)
//	signal.Wait()
//
// # Key Concepts
//
// WorkStealingPool: The execution engine. Workers are started by the
// constructor and joined by Shutdown.
//
// Future: The pending result of a task. Errors and panics of the task are
// delivered through it; a panic arrives as *PanicError.
//
// CompletionSignal: Released once after every member of a group finished,
// including failed ones.
//
// ErrorHandler: Observes failures of detached tasks and group members.
// The default discards them.
//
// # Shutdown
//
// Shutdown refuses new tasks, lets workers drain their own queues and joins
// them. ShutdownNow discards queued tasks and cancels the context passed to
// running ones. A task stopping its own pool calls ShutdownContext or
// ShutdownNowContext with its context; the calling worker exits once the
// task returns.
//
// For more details, see https://github.com/Swind/go-stealpool
package stealpool
