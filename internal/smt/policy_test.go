package smt

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttemptsEscalatesTimeoutUpToMax(t *testing.T) {
	p := RetryPolicy{
		Timeout:    1 * time.Second,
		Multiplier: 2,
		Max:        3 * time.Second,
		MaxTries:   4,
	}
	rng := rand.New(rand.NewSource(1))
	attempts := p.Attempts(rng)
	require.Len(t, attempts, 4)
	require.Equal(t, 1*time.Second, attempts[0].Timeout)
	require.Equal(t, 2*time.Second, attempts[1].Timeout)
	require.Equal(t, 3*time.Second, attempts[2].Timeout, "3rd attempt would be 4s uncapped, but Max caps it at 3s")
	require.Equal(t, 3*time.Second, attempts[3].Timeout)
}

func TestAttemptsZeroSeedWhenRandomizationDisabled(t *testing.T) {
	p := RetryPolicy{Timeout: time.Second, Multiplier: 1, Max: time.Second, MaxTries: 3, DisableRandomization: true}
	rng := rand.New(rand.NewSource(1))
	for _, a := range p.Attempts(rng) {
		require.Equal(t, int64(0), a.Seed)
	}
}

func TestRunWithRetryReturnsFirstNonUnknownResult(t *testing.T) {
	p := RetryPolicy{Timeout: 10 * time.Millisecond, Multiplier: 1, Max: 10 * time.Millisecond, MaxTries: 3}
	rng := rand.New(rand.NewSource(1))

	calls := 0
	res, err := RunWithRetry(context.Background(), p, rng, func(ctx context.Context, timeout time.Duration, seed int64) (Result, error) {
		calls++
		if calls < 2 {
			return Unknown, nil
		}
		return Sat, nil
	})
	require.NoError(t, err)
	require.Equal(t, Sat, res)
	require.Equal(t, 2, calls)
}

func TestRunWithRetryExhaustsBudgetReturningUnknown(t *testing.T) {
	p := RetryPolicy{Timeout: time.Millisecond, Multiplier: 1, Max: time.Millisecond, MaxTries: 2}
	rng := rand.New(rand.NewSource(1))

	res, _ := RunWithRetry(context.Background(), p, rng, func(ctx context.Context, timeout time.Duration, seed int64) (Result, error) {
		return Unknown, nil
	})
	require.Equal(t, Unknown, res)
}

func TestDefaultRetryPolicyMatchesSettingsDefaults(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, 10*time.Second, p.Timeout)
	require.Equal(t, 1.5, p.Multiplier)
	require.Equal(t, 60*time.Second, p.Max)
	require.Equal(t, 5, p.MaxTries)
}
