package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnqueueGroup_ReleasedAfterAllMembers(t *testing.T) {
	p := newTestPool(t, 4)

	const size = 50
	var finished atomic.Int32
	tasks := make([]Task, size)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) error {
			if i%10 == 0 {
				time.Sleep(2 * time.Millisecond)
			}
			finished.Add(1)
			if i%5 == 0 {
				return errors.New("member failed")
			}
			return nil
		}
	}

	signal, err := p.EnqueueGroup(tasks...)
	require.NoError(t, err)
	require.Equal(t, size, signal.Size())
	require.Len(t, signal.TaskIDs(), size)

	require.NoError(t, signal.WaitContext(context.Background()))
	require.EqualValues(t, size, finished.Load(), "signal released before every member finished")
	require.Equal(t, 10, signal.Failed())
	require.True(t, signal.TryWait())

	// Released exactly once: waiting again returns immediately.
	signal.Wait()
	select {
	case <-signal.Done():
	default:
		t.Fatal("Done() not closed after release")
	}
}

func TestEnqueueGroup_PanicCountsAsFailure(t *testing.T) {
	var reported atomic.Int32
	p := newTestPool(t, 2, WithErrorHandler(ErrorHandlerFunc(
		func(ctx context.Context, poolID string, workerID int, taskID TaskID, err error) {
			reported.Add(1)
		})))

	signal, err := p.EnqueueGroup(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { panic("member panic") },
	)
	require.NoError(t, err)
	signal.Wait()

	require.Equal(t, 1, signal.Failed())
	require.EqualValues(t, 1, reported.Load())
}

func TestEnqueueGroup_Empty(t *testing.T) {
	p := newTestPool(t, 1)

	signal, err := p.EnqueueGroup()
	require.NoError(t, err)
	require.True(t, signal.TryWait(), "empty group must be released immediately")
	require.Zero(t, signal.Size())
}

func TestEnqueueGroup_NotReleasedWhileMemberRunning(t *testing.T) {
	p := newTestPool(t, 2)
	gate := make(chan struct{})

	signal, err := p.EnqueueGroup(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			<-gate
			return nil
		},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, signal.WaitContext(ctx), context.DeadlineExceeded)
	require.False(t, signal.TryWait())

	close(gate)
	signal.Wait()
	require.Zero(t, signal.Failed())
}

func TestEnqueueGroup_ReleasedWhenMembersDiscarded(t *testing.T) {
	p := newTestPool(t, 1)
	release := blockWorkers(t, p)
	defer release()

	signal, err := p.EnqueueGroup(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	)
	require.NoError(t, err)

	require.True(t, p.Cancel(signal.TaskIDs()[0]))
	require.Equal(t, 2, p.ClearTasks())

	require.True(t, signal.TryWait(), "discarded members must still release the signal")
	require.Equal(t, 3, signal.Failed())
}

func TestEnqueueGroup_RejectedAfterShutdown(t *testing.T) {
	p := newTestPool(t, 1)
	p.Shutdown()

	signal, err := p.EnqueueGroup(func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrPoolStopped)
	require.Nil(t, signal)
}
