package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BurstEqualsRate(t *testing.T) {
	l := New("omdb", 2)

	assert.Equal(t, "omdb", l.Name())
	assert.False(t, l.Unlimited())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "burst exhausted")
}

func TestNew_NonPositiveRateIsUnlimited(t *testing.T) {
	l := New("test", 0)

	assert.True(t, l.Unlimited())
	for range 100 {
		require.True(t, l.Allow())
	}
	require.NoError(t, l.Wait(context.Background()))
}

func TestWait_CancelledContext(t *testing.T) {
	l := NewWithBurst("omdb", 1, 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for omdb")
}
