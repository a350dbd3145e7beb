package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHold_UnknownName(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Hold(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestHold_ReplaysMostRecent(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	var log []any
	require.NoError(t, d.Bind(On("on_test", Func(func(_ context.Context, e Emission) error {
		log = append(log, e.Arg(0))
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := d.Emit(ctx, "on_test", i)
		require.NoError(t, err)
	}
	assert.Empty(t, log)

	require.NoError(t, h.Release(ctx))
	assert.Equal(t, []any{9}, log)
}

func TestHold_ReleaseWithoutEmission(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	fired := false
	require.NoError(t, d.Bind(On("on_test", Func(func(_ context.Context, _ Emission) error {
		fired = true
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)
	require.NoError(t, h.Release(ctx))
	assert.False(t, fired)
}

func TestHold_DoubleReleaseIsNoop(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	fired := 0
	require.NoError(t, d.Bind(On("on_test", Func(func(_ context.Context, _ Emission) error {
		fired++
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)

	_, err = d.Emit(ctx, "on_test", "v")
	require.NoError(t, err)

	require.NoError(t, h.Release(ctx))
	require.NoError(t, h.Release(ctx))
	assert.Equal(t, 1, fired)
}

func TestHold_PreservesFields(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	var got Emission
	require.NoError(t, d.Bind(On("on_test", Func(func(_ context.Context, e Emission) error {
		got = e
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)

	_, err = d.EmitWith(ctx, "on_test", Fields{"reason": "final"}, 1, 2)
	require.NoError(t, err)
	require.NoError(t, h.Release(ctx))

	assert.Equal(t, []any{1, 2}, got.Args)
	assert.Equal(t, "final", got.Field("reason"))
}

func TestHold_OtherEventsUnaffected(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_a", "on_b"))

	fired := false
	require.NoError(t, d.Bind(On("on_b", Func(func(_ context.Context, _ Emission) error {
		fired = true
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_a")
	require.NoError(t, err)
	defer h.Release(ctx)

	_, err = d.Emit(ctx, "on_b")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestHold_SerializesHolders(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	ctx := context.Background()
	h1, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)

	// A second holder blocks until the first releases.
	acquired := make(chan *Hold, 1)
	go func() {
		h2, err := d.Hold(context.Background(), "on_test")
		if err == nil {
			acquired <- h2
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second hold acquired while the first was active")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, h1.Release(ctx))

	select {
	case h2 := <-acquired:
		require.NoError(t, h2.Release(ctx))
	case <-time.After(2 * time.Second):
		t.Fatal("second hold never acquired after release")
	}
}

func TestHold_AcquireHonorsContext(t *testing.T) {
	d := newTestDispatcher(t, WithEvents("on_test"))

	ctx := context.Background()
	h, err := d.Hold(ctx, "on_test")
	require.NoError(t, err)
	defer h.Release(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = d.Hold(waitCtx, "on_test")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHold_PropertyEvent(t *testing.T) {
	d := newTestDispatcher(t, WithProperties(NewIntProperty("value", 0)))

	var log []any
	require.NoError(t, d.Bind(On("value", Func(func(_ context.Context, e Emission) error {
		log = append(log, e.Value())
		return nil
	}))))

	ctx := context.Background()
	h, err := d.Hold(ctx, "value")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, d.Set(ctx, "value", i))
	}
	assert.Empty(t, log)

	require.NoError(t, h.Release(ctx))
	assert.Equal(t, []any{5}, log)

	// The stored value tracked every assignment even while held.
	v, err := d.Get("value")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
