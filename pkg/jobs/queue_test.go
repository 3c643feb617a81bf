package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		if len(seen) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "t"}))
	require.NoError(t, q.Enqueue(Job{ID: "j2", Type: "t"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed")
	}
	mu.Lock()
	assert.ElementsMatch(t, []string{"j1", "j2"}, seen)
	mu.Unlock()
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "t"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
}

// Jobs still buffered or awaiting a retry at shutdown must reach the handler
// before Stop returns, so callers tracking terminal outcomes never hang.
func TestQueueShutdownRunsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		first := len(seen) == 0
		seen = append(seen, job.ID)
		mu.Unlock()
		if first {
			<-ctx.Done()
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue("test", handler, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(ctx)

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "t"}))
	require.NoError(t, q.Enqueue(Job{ID: "j2", Type: "t"}))
	require.NoError(t, q.Enqueue(Job{ID: "j3", Type: "t"}))

	time.Sleep(10 * time.Millisecond)
	cancel()
	q.Stop()

	mu.Lock()
	assert.ElementsMatch(t, []string{"j1", "j2", "j3"}, seen)
	mu.Unlock()
}

func TestQueueShutdownFinishesPendingRetry(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("store down")
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Minute})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "t"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 1
	}, 2*time.Second, time.Millisecond)
	q.Stop()

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Workers: 1})

	require.Error(t, q.Enqueue(Job{ID: "j1", Type: "t"}))

	q.Start(context.Background())
	q.Stop()
	require.Error(t, q.Enqueue(Job{ID: "j1", Type: "t"}))
}
