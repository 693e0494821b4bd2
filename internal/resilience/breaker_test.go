package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(_ context.Context) (int, error) {
	return 0, NewTransientError(errors.New("http 503"), 503)
}

func notFound(_ context.Context) (int, error) { return 0, errors.New("http 404") }
func succeeding(_ context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("infodengue", 2, time.Minute)
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Closed, b.State())
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Open, b.State())

	_, err := Call(ctx, b, succeeding)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("infodengue", 1, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	require.Equal(t, Open, b.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, HalfOpen, b.State())

	got, err := Call(ctx, b, succeeding)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("infodengue", 1, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	now = now.Add(2 * time.Second)
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Open, b.State())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker("infodengue", 2, time.Minute)
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	_, _ = Call(ctx, b, succeeding)
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_CancelledContextDoesNotTrip(t *testing.T) {
	b := NewBreaker("infodengue", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker("infodengue", 2, time.Minute)
	ctx := context.Background()

	for range 5 {
		_, err := Call(ctx, b, notFound)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBreakerOpen)
	}
	assert.Equal(t, Closed, b.State())

	got, err := Call(ctx, b, succeeding)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestBreaker_PermanentErrorResetsFailures(t *testing.T) {
	b := NewBreaker("infodengue", 2, time.Minute)
	ctx := context.Background()

	_, _ = Call(ctx, b, failing)
	_, _ = Call(ctx, b, notFound)
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenAdmitsOneTrial(t *testing.T) {
	now := time.Now()
	b := NewBreaker("infodengue", 1, time.Second)
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, failing)
	now = now.Add(2 * time.Second)

	require.NoError(t, b.allow())
	assert.ErrorIs(t, b.allow(), ErrBreakerOpen)

	b.record(succeeded)
	assert.Equal(t, Closed, b.State())
	assert.NoError(t, b.allow())
}

func TestBreaker_CancelledTrialFreesSlot(t *testing.T) {
	now := time.Now()
	b := NewBreaker("infodengue", 1, time.Second)
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, failing)
	now = now.Add(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = Call(ctx, b, failing)
	assert.Equal(t, HalfOpen, b.State())

	got, err := Call(context.Background(), b, succeeding)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
