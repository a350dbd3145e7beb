package runloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l := New(opts...)
	require.NoError(t, l.Start())
	t.Cleanup(func() {
		if l.IsRunning() {
			_ = l.Stop(context.Background())
		}
	})
	return l
}

func TestLoop_Lifecycle(t *testing.T) {
	l := New()
	assert.False(t, l.IsRunning())

	require.NoError(t, l.Start())
	assert.True(t, l.IsRunning())
	assert.ErrorIs(t, l.Start(), ErrAlreadyRunning)

	require.NoError(t, l.Stop(context.Background()))
	assert.False(t, l.IsRunning())
	assert.ErrorIs(t, l.Stop(context.Background()), ErrNotRunning)
}

func TestLoop_SubmitNotRunning(t *testing.T) {
	l := New()
	_, err := l.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestLoop_SubmitAndWait(t *testing.T) {
	l := startLoop(t)

	ran := false
	task, err := l.Submit(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID())

	require.NoError(t, task.Wait(context.Background()))
	assert.True(t, ran)
	assert.NoError(t, task.Err())
}

func TestLoop_TasksRunSerially(t *testing.T) {
	l := startLoop(t)

	var mu sync.Mutex
	var order []int
	var last *Task
	for i := 0; i < 10; i++ {
		i := i
		task, err := l.Submit(context.Background(), func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		last = task
	}

	require.NoError(t, last.Wait(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 10)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestLoop_TaskError(t *testing.T) {
	l := startLoop(t)

	wantErr := errors.New("task failed")
	task, err := l.Submit(context.Background(), func(context.Context) error {
		return wantErr
	})
	require.NoError(t, err)

	assert.ErrorIs(t, task.Wait(context.Background()), wantErr)
	assert.Equal(t, uint64(1), l.Stats().Failed)
}

func TestLoop_TaskPanicRecovered(t *testing.T) {
	l := startLoop(t)

	task, err := l.Submit(context.Background(), func(context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	err = task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTaskPanicked)
	assert.Equal(t, uint64(1), l.Stats().Panicked)

	// The loop survives a panicking task.
	task, err = l.Submit(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, task.Wait(context.Background()))
}

func TestLoop_CancelledContextSkipsTask(t *testing.T) {
	l := startLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	task, err := l.Submit(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)

	err = task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestLoop_QueueFull(t *testing.T) {
	l := startLoop(t, WithQueueSize(1))

	started := make(chan struct{})
	release := make(chan struct{})
	_, err := l.Submit(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	// The worker is blocked; one task fits in the queue, the next is dropped.
	_, err = l.Submit(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), l.Stats().Dropped)

	close(release)
}

func TestLoop_StopDrainsQueue(t *testing.T) {
	l := New(WithQueueSize(16))
	require.NoError(t, l.Start())

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		_, err := l.Submit(context.Background(), func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, l.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}

func TestLoop_StopHonorsContext(t *testing.T) {
	l := New()
	require.NoError(t, l.Start())

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := l.Submit(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Stop(ctx), context.DeadlineExceeded)

	close(release)
}

func TestLoop_Stats(t *testing.T) {
	l := startLoop(t)

	task, err := l.Submit(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))

	stats := l.Stats()
	assert.Equal(t, uint64(1), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Processed)
	assert.Equal(t, uint64(1), stats.Succeeded)
}

func TestAmbient_ExactlyOne(t *testing.T) {
	_, err := Ambient()
	assert.ErrorIs(t, err, ErrNoLoop)

	l1 := startLoop(t)

	got, err := Ambient()
	require.NoError(t, err)
	assert.Same(t, l1, got)

	l2 := startLoop(t)
	_, err = Ambient()
	assert.ErrorIs(t, err, ErrAmbiguousLoop)

	require.NoError(t, l2.Stop(context.Background()))
	got, err = Ambient()
	require.NoError(t, err)
	assert.Same(t, l1, got)
}
