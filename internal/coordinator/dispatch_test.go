package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	loop := NewLoop()

	var order []int
	for i := range 5 {
		loop.Dispatch(func() { order = append(order, i) })
	}
	loop.Stop()

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoop_DispatchFromInsideLoop(t *testing.T) {
	loop := NewLoop()

	var order []string
	loop.Dispatch(func() {
		order = append(order, "outer")
		loop.Dispatch(func() {
			order = append(order, "inner")
			loop.Stop()
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	loop := NewLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, loop.Run(ctx), context.DeadlineExceeded)
}

func TestLoop_ReusableAfterStop(t *testing.T) {
	loop := NewLoop()

	calls := 0
	for range 2 {
		loop.Dispatch(func() { calls++ })
		loop.Stop()
		require.NoError(t, loop.Run(context.Background()))
	}
	assert.Equal(t, 2, calls)
}

func TestLoop_IgnoresNilDispatch(t *testing.T) {
	loop := NewLoop()
	loop.Dispatch(nil)

	ran := false
	loop.Dispatch(func() { ran = true })
	loop.Stop()

	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, ran, "a nil dispatch must not stop the loop early")
}

func TestDispatchFunc(t *testing.T) {
	var ran bool
	var d Dispatcher = DispatchFunc(func(fn func()) { fn() })
	d.Dispatch(func() { ran = true })
	assert.True(t, ran)
}
