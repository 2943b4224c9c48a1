package stealpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestNew_Lifecycle(t *testing.T) {
	pool, err := New(2, WithID("test-pool"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if pool.ID() != "test-pool" {
		t.Errorf("expected ID 'test-pool', got %s", pool.ID())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after New()")
	}
	if pool.Size() != 2 {
		t.Errorf("expected 2 workers, got %d", pool.Size())
	}

	pool.Shutdown()

	if pool.IsRunning() {
		t.Error("pool should not be running after Shutdown()")
	}
}

func TestGlobalPool_Lifecycle(t *testing.T) {
	if err := InitGlobalPool(2); err != nil {
		t.Fatalf("InitGlobalPool failed: %v", err)
	}
	first := GlobalPool()

	// Second init keeps the existing pool
	if err := InitGlobalPool(8); err != nil {
		t.Fatalf("second InitGlobalPool failed: %v", err)
	}
	if GlobalPool() != first {
		t.Error("InitGlobalPool replaced an initialized pool")
	}
	if first.ID() != "global-pool" {
		t.Errorf("expected ID 'global-pool', got %s", first.ID())
	}

	var counter atomic.Int32
	for i := 0; i < 100; i++ {
		if err := first.EnqueueDetached(func(ctx context.Context) error {
			counter.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("EnqueueDetached failed: %v", err)
		}
	}

	ShutdownGlobalPool()
	if counter.Load() != 100 {
		t.Errorf("expected 100 tasks executed, got %d", counter.Load())
	}
	if first.IsRunning() {
		t.Error("global pool still running after ShutdownGlobalPool()")
	}
	ShutdownGlobalPool() // no-op
}

func TestGlobalPool_PanicsWhenUninitialized(t *testing.T) {
	ShutdownGlobalPool()
	defer func() {
		if recover() == nil {
			t.Error("GlobalPool() should panic before InitGlobalPool()")
		}
	}()
	GlobalPool()
}

func TestInitGlobalPool_InvalidWorkers(t *testing.T) {
	err := InitGlobalPool(1_000_000)
	if !errors.Is(err, ErrInvalidWorkerCount) {
		t.Fatalf("expected ErrInvalidWorkerCount, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("failed InitGlobalPool must leave the global pool unset")
		}
	}()
	GlobalPool()
}
