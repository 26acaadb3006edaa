package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingCall(ctx context.Context) error { return errors.New("upstream broken") }
func okCall(ctx context.Context) error      { return nil }

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.Error(t, cb.Execute(ctx, failingCall))
		assert.Equal(t, CircuitClosed, cb.State())
	}
	require.Error(t, cb.Execute(ctx, failingCall))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_OpenShedsCalls(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)
	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failingCall))

	calls := 0
	err := cb.Execute(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failingCall))
	require.Error(t, cb.Execute(ctx, failingCall))
	require.NoError(t, cb.Execute(ctx, okCall))
	require.Error(t, cb.Execute(ctx, failingCall))
	require.Error(t, cb.Execute(ctx, failingCall))

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ProbeSuccessCloses(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failingCall))

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ctx, okCall))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failingCall))

	*now = now.Add(2 * time.Minute)
	require.Error(t, cb.Execute(ctx, failingCall))

	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, okCall), ErrCircuitOpen)
}

func TestCircuitBreaker_ResetForcesClosed(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)
	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failingCall))
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()

	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Execute(ctx, okCall))
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failingCall))
	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, okCall))

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

func TestExecuteVal_PassesValueThrough(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	got, err := ExecuteVal(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
