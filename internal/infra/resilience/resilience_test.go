package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/comissoes-bfa/internal/infra/resilience"
)

var errBadRequest = errors.New("bad request")

func fastConfig(retries int) resilience.Config {
	return resilience.Config{MaxRetries: retries, InitialBackoff: 5 * time.Millisecond}
}

func TestRetryWithBackoff_RetriesOnFailure(t *testing.T) {
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(2), func() error {
		calls++
		return errors.New("persistent error")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_PermanentStopsAndUnwraps(t *testing.T) {
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		return resilience.Permanent(errBadRequest)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errBadRequest)
	assert.False(t, resilience.IsPermanent(err))
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}, func() error {
		return errors.New("error")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test", func(err error) bool { return errors.Is(err, errBadRequest) })

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, errBadRequest })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	cb = resilience.NewCircuitBreaker("test", func(err error) bool { return errors.Is(err, errBadRequest) })
	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, errors.New("upstream down") })
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBulkhead_AcquireRelease(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	require.NoError(t, bh.Acquire(context.Background()))
	require.NoError(t, bh.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, bh.Acquire(ctx), "third acquire should block until timeout")

	bh.Release()
	assert.NoError(t, bh.Acquire(context.Background()))
}

func TestBulkhead_Unbounded(t *testing.T) {
	bh := resilience.NewBulkhead(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, bh.Acquire(context.Background()))
	}
	bh.Release()
}
