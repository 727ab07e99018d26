package smt

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy implements the attempt-budget and timeout-escalation rules of
// spec.md §4.6: start at Timeout, multiply by Multiplier up to Max on each
// `unknown`, up to MaxTries attempts, with a fresh random seed per attempt
// unless DisableRandomization is set.
type RetryPolicy struct {
	Timeout              time.Duration
	Multiplier           float64
	Max                  time.Duration
	MaxTries             int
	DisableRandomization bool
	ExitOnUnknown        bool
}

// DefaultRetryPolicy mirrors the settings table defaults in spec.md §6.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:    10 * time.Second,
		Multiplier: 1.5,
		Max:        60 * time.Second,
		MaxTries:   5,
	}
}

// Attempt is one (timeout, seed) pair to try, in escalation order.
type Attempt struct {
	Timeout time.Duration
	Seed    int64
}

// Attempts enumerates the escalating attempt schedule for this policy.
func (p RetryPolicy) Attempts(rng *rand.Rand) []Attempt {
	out := make([]Attempt, 0, p.MaxTries)
	timeout := p.Timeout
	for i := 0; i < p.MaxTries; i++ {
		var seed int64
		if !p.DisableRandomization {
			seed = rng.Int63()
		}
		out = append(out, Attempt{Timeout: timeout, Seed: seed})
		timeout = time.Duration(float64(timeout) * p.Multiplier)
		if timeout > p.Max {
			timeout = p.Max
		}
	}
	return out
}

// RunWithRetry drives check across the policy's attempt schedule, returning
// the first non-Unknown result, or Unknown after the budget is exhausted.
// Each attempt's seed (zero when randomization is disabled) is handed to
// check; RunWithRetry itself does not reorder any conjuncts.
func RunWithRetry(ctx context.Context, p RetryPolicy, rng *rand.Rand,
	check func(ctx context.Context, timeout time.Duration, seed int64) (Result, error),
) (Result, error) {
	var lastErr error
	for _, attempt := range p.Attempts(rng) {
		attemptCtx, cancel := context.WithTimeout(ctx, attempt.Timeout)
		res, err := check(attemptCtx, attempt.Timeout, attempt.Seed)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if res != Unknown {
			return res, nil
		}
	}
	return Unknown, lastErr
}
