package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockclock "github.com/KirkDiggler/rpg-table/internal/clock/mock"
	"github.com/KirkDiggler/rpg-table/internal/ratelimit"
)

var testNow = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

func newLimiter(rate, burst int) (*ratelimit.Limiter, *mockclock.ManualClock) {
	clk := mockclock.NewManualClock(testNow)
	return ratelimit.New(&ratelimit.Config{Rate: rate, Burst: burst, Clock: clk}), clk
}

func TestAllowBurst(t *testing.T) {
	limiter, _ := newLimiter(60, 3)

	for want := 2; want >= 0; want-- {
		d := limiter.Allow("player-1")
		require.True(t, d.Allowed)
		assert.Equal(t, want, d.Remaining)
		assert.Zero(t, d.RetryAfter)
	}

	d := limiter.Allow("player-1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestRefill(t *testing.T) {
	limiter, clk := newLimiter(60, 2)

	limiter.Allow("player-1")
	limiter.Allow("player-1")
	require.False(t, limiter.Allow("player-1").Allowed)

	// 60 per minute refills one token per second.
	clk.Advance(time.Second)
	assert.True(t, limiter.Allow("player-1").Allowed)
	assert.False(t, limiter.Allow("player-1").Allowed)
}

func TestRefillCapsAtBurst(t *testing.T) {
	limiter, clk := newLimiter(60, 3)

	limiter.Allow("player-1")
	clk.Advance(time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("player-1").Allowed, "call %d", i+1)
	}
	assert.False(t, limiter.Allow("player-1").Allowed)
}

func TestRetryAfterScalesWithRate(t *testing.T) {
	// 6 per minute is a token every 10 seconds.
	limiter, _ := newLimiter(6, 1)

	require.True(t, limiter.Allow("player-1").Allowed)

	d := limiter.Allow("player-1")
	require.False(t, d.Allowed)
	assert.Equal(t, 10*time.Second, d.RetryAfter)
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(60, 1)

	require.True(t, limiter.Allow("player-1").Allowed)
	require.False(t, limiter.Allow("player-1").Allowed)

	assert.True(t, limiter.Allow("player-2").Allowed)
}

func TestReset(t *testing.T) {
	limiter, _ := newLimiter(60, 2)

	limiter.Allow("player-1")
	limiter.Allow("player-1")
	require.False(t, limiter.Allow("player-1").Allowed)

	limiter.Reset("player-1")

	d := limiter.Allow("player-1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestSweep(t *testing.T) {
	limiter, clk := newLimiter(60, 2)

	limiter.Allow("player-1")
	limiter.Allow("player-2")
	require.Equal(t, 2, limiter.Size())

	clk.Advance(10 * time.Minute)
	limiter.Allow("player-2")

	removed := limiter.Sweep(5 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, limiter.Size())

	// The swept key simply starts fresh.
	d := limiter.Allow("player-1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}
