package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledForNonPositiveRate(t *testing.T) {
	assert.Nil(t, New("off", 0))
	assert.Nil(t, New("off", -1))

	var l *Limiter
	require.NoError(t, l.Wait(context.Background()))
}

func TestNilLimiterHonoursCancelledContext(t *testing.T) {
	var l *Limiter
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestLimiterBurst(t *testing.T) {
	l := NewWithBurst("api", 1, 2)
	require.NotNil(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.Error(t, l.Wait(ctx), "third request should exceed the burst")
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewWithBurst("flags", 0.001, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for flags")
}
