package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocarryr/go-dispatch/runloop"
)

func newTestLoop(t *testing.T) *runloop.Loop {
	t.Helper()
	l := runloop.New()
	require.NoError(t, l.Start())
	t.Cleanup(func() {
		if l.IsRunning() {
			_ = l.Stop(context.Background())
		}
	})
	return l
}

func TestTracker_UnknownName(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))
	_, err := NewTracker(d, "missing")
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestTracker_RetainsScheduledTasks(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))
	loop := newTestLoop(t)

	var hits atomic.Int32
	require.NoError(t, d.BindAsync(loop, On("on_test", Func(func(_ context.Context, _ Emission) error {
		hits.Add(1)
		return nil
	}))))

	tr, err := NewTracker(d, "on_test")
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := d.Emit(ctx, "on_test", i)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, tr.Pending("on_test"))
	require.NoError(t, tr.Wait(ctx, "on_test"))
	assert.Equal(t, int32(3), hits.Load())
}

func TestTracker_WaitAll(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_a", "on_b"))
	loop := newTestLoop(t)

	var hits atomic.Int32
	cb := Func(func(_ context.Context, _ Emission) error {
		hits.Add(1)
		return nil
	})
	require.NoError(t, d.BindAsync(loop, On("on_a", cb)))
	require.NoError(t, d.BindAsync(loop, On("on_b", cb)))

	// No names: the tracker watches everything.
	tr, err := NewTracker(d)
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	_, err = d.Emit(ctx, "on_a")
	require.NoError(t, err)
	_, err = d.Emit(ctx, "on_b")
	require.NoError(t, err)

	require.NoError(t, tr.WaitAll(ctx))
	assert.Equal(t, int32(2), hits.Load())
}

func TestTracker_OnlyWatchedNames(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_a", "on_b"))
	loop := newTestLoop(t)

	cb := Func(func(_ context.Context, _ Emission) error { return nil })
	require.NoError(t, d.BindAsync(loop, On("on_a", cb)))
	require.NoError(t, d.BindAsync(loop, On("on_b", cb)))

	tr, err := NewTracker(d, "on_a")
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	_, err = d.Emit(ctx, "on_a")
	require.NoError(t, err)
	_, err = d.Emit(ctx, "on_b")
	require.NoError(t, err)

	assert.Equal(t, 1, tr.Pending("on_a"))
	assert.Equal(t, 0, tr.Pending("on_b"))
}

func TestTracker_ClosedScopeStopsRetaining(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))
	loop := newTestLoop(t)

	require.NoError(t, d.BindAsync(loop, On("on_test", Func(func(_ context.Context, _ Emission) error {
		return nil
	}))))

	tr, err := NewTracker(d, "on_test")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = d.Emit(ctx, "on_test")
	require.NoError(t, err)
	require.Equal(t, 1, tr.Pending("on_test"))

	tr.Close()

	// Emissions outside the scope are fire-and-forget.
	_, err = d.Emit(ctx, "on_test")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Pending("on_test"))

	// Already-retained tasks can still be waited on after Close.
	require.NoError(t, tr.Wait(ctx, "on_test"))
}

func TestTracker_WaitHonorsContext(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))
	loop := newTestLoop(t)

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, d.BindAsync(loop, On("on_test", Func(func(_ context.Context, _ Emission) error {
		<-release
		return nil
	}))))

	tr, err := NewTracker(d, "on_test")
	require.NoError(t, err)
	defer tr.Close()

	_, err = d.Emit(context.Background(), "on_test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Wait(ctx, "on_test"), context.DeadlineExceeded)
}

func TestTracker_SyncCallbacksNotTracked(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	require.NoError(t, d.Bind(On("on_test", Func(func(_ context.Context, _ Emission) error {
		return nil
	}))))

	tr, err := NewTracker(d, "on_test")
	require.NoError(t, err)
	defer tr.Close()

	_, err = d.Emit(context.Background(), "on_test")
	require.NoError(t, err)

	// Synchronous delivery completes inline; there is nothing to track.
	assert.Equal(t, 0, tr.Pending("on_test"))
}
