package smt

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RacePool runs N independently-seeded solver attempts against the same
// query concurrently and returns the first to report sat or unsat,
// cancelling the rest (spec.md §4.6 "Parallel solving", §5 "the only
// parallelism is within a single SMT check"). It is only meaningful in
// ModeReset, since a shared incremental solver cannot be raced against
// itself.
type RacePool struct {
	NumWorkers int
}

// NewRacePool defaults NumWorkers to the number of available CPUs, matching
// the default for --parallel-solving-num-processes.
func NewRacePool(numWorkers int) *RacePool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &RacePool{NumWorkers: numWorkers}
}

// Race runs attempt NumWorkers times concurrently with distinct worker
// indices (used to vary the random seed per worker) and returns the first
// decisive (non-Unknown) outcome. If every worker reports Unknown or errors,
// Race returns Unknown.
func (p *RacePool) Race(ctx context.Context, attempt func(ctx context.Context, worker int) (Result, error)) (Result, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, p.NumWorkers)
	g, gctx := errgroup.WithContext(raceCtx)

	for w := 0; w < p.NumWorkers; w++ {
		w := w
		g.Go(func() error {
			res, err := attempt(gctx, w)
			if err != nil {
				return nil // a failing worker simply does not get to vote
			}
			if res != Unknown {
				select {
				case results <- res:
					cancel()
				default:
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case res := <-results:
		return res, nil
	case <-done:
		select {
		case res := <-results:
			return res, nil
		default:
			return Unknown, nil
		}
	}
}
