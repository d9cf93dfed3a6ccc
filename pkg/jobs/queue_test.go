package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type taskRecorder struct {
	mu       sync.Mutex
	attempts []int
}

func (r *taskRecorder) record(task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, task.Attempt)
}

func (r *taskRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func TestDispatcherRunsSubmittedTask(t *testing.T) {
	rec := &taskRecorder{}
	done := make(chan Task, 1)
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		rec.record(task)
		done <- task
		return nil
	}, Options{Workers: 1, RetryDelay: 10 * time.Millisecond})

	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Submit(Task{ID: "t1", Kind: "test", RecordID: "r1"}))

	select {
	case task := <-done:
		require.Equal(t, "t1", task.ID)
		require.False(t, task.Submitted.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestDispatcherRetriesFailedTask(t *testing.T) {
	rec := &taskRecorder{}
	done := make(chan struct{}, 1)
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		rec.record(task)
		if task.Attempt == 0 {
			return errors.New("transient failure")
		}
		done <- struct{}{}
		return nil
	}, Options{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Submit(Task{ID: "t1", Kind: "test"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []int{0, 1}, rec.attempts)
}

func TestDispatcherAbandonsAfterMaxRetries(t *testing.T) {
	rec := &taskRecorder{}
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		rec.record(task)
		return errors.New("permanent failure")
	}, Options{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Submit(Task{ID: "t1", Kind: "test"}))

	// Initial run plus two retries, then the task is dropped.
	require.Eventually(t, func() bool {
		return rec.count() == 3
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 3, rec.count())
}

func TestDispatcherSubmitBeforeStart(t *testing.T) {
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		return nil
	}, Options{})

	err := d.Submit(Task{ID: "t1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not started")
}

func TestDispatcherStopWaitsForWorkers(t *testing.T) {
	started := make(chan struct{})
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		close(started)
		<-ctx.Done()
		return nil
	}, Options{Workers: 1})

	d.Start(context.Background())
	require.NoError(t, d.Submit(Task{ID: "t1"}))
	<-started

	d.Stop()

	err := d.Submit(Task{ID: "t2"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not started")
}

func TestDispatcherRejectsEverySubmitAfterStop(t *testing.T) {
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		return nil
	}, Options{Workers: 1, Buffer: 16})

	d.Start(context.Background())
	d.Stop()

	// The buffered channel has room, so acceptance here would silently
	// swallow tasks no worker will run.
	for i := 0; i < 16; i++ {
		require.Error(t, d.Submit(Task{ID: "t1"}))
	}
}

func TestDispatcherStopDrainsPendingRetry(t *testing.T) {
	rec := &taskRecorder{}
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		rec.record(task)
		return errors.New("transient failure")
	}, Options{Workers: 1, MaxRetries: 3, RetryDelay: time.Minute})

	d.Start(context.Background())
	require.NoError(t, d.Submit(Task{ID: "t1"}))

	require.Eventually(t, func() bool {
		return rec.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain the pending retry timer")
	}
}

func TestDispatcherStartTwice(t *testing.T) {
	d := NewDispatcher("test", func(ctx context.Context, task Task) error {
		return nil
	}, Options{Workers: 1})

	ctx := context.Background()
	d.Start(ctx)
	d.Start(ctx)
	d.Stop()
}
