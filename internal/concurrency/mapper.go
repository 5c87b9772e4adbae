// Package concurrency implements the bounded concurrent mapper (C1): a
// generic fan-out over an ordered input with a cap on simultaneous in-flight
// work and an ordered result slice, in a worker-pool-with-semaphore-channel
// shape.
package concurrency

import (
	"context"
	"sync"
)

// Result pairs a mapped value with the error (if any) that fn returned for
// that input element. A failure for one element never prevents its peers
// from being scheduled or completing (§4.1).
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every element of input with at most cap concurrent
// invocations in flight, and returns one Result per input element, in input
// order, regardless of completion order. A non-positive cap is treated as 1.
func Map[T any, R any](ctx context.Context, input []T, cap int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	if cap <= 0 {
		cap = 1
	}

	results := make([]Result[R], len(input))
	sem := make(chan struct{}, cap)
	var wg sync.WaitGroup

	for i, item := range input {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int, it T) {
			defer wg.Done()
			defer func() { <-sem }()

			value, err := fn(ctx, it)
			results[idx] = Result[R]{Value: value, Err: err}
		}(i, item)
	}

	wg.Wait()
	return results
}

// Values extracts just the successful values from a Map result, preserving
// relative order but dropping failed indices. Useful where the caller only
// needs the happy-path collection (e.g. §4.4 collecting AcceptedReleases)
// and classifies failures separately.
func Values[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
