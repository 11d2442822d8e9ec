// Package distribute provides concurrency primitives, like limited distribution of work.
package distribute

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var ErrNotEnoughConcurrency = fmt.Errorf("concurrency must be greater than zero")

// OneToN distributes work to a limited number of worker functions.
// Items are produced by sourceFn and handed to concurrency amount of workerFn functions.
// The first error returned by any function cancels the context passed to all others.
func OneToN[T any](
	ctx context.Context,
	sourceFn func(ctx context.Context, itemCh chan<- T) error,
	workerFn func(ctx context.Context, item T) error,
	concurrency int,
) error {
	if concurrency < 1 {
		return ErrNotEnoughConcurrency
	}

	ch := make(chan T, concurrency)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(ch)
		return sourceFn(ctx, ch)
	})
	for i := 0; i < concurrency; i++ {
		eg.Go(func() error {
			for item := range ch {
				err := workerFn(ctx, item)
				if err != nil {
					return err
				}
			}

			return ctx.Err()
		})
	}

	return eg.Wait()
}

// Slice is a sourceFn that emits every element of items.
// It stops early if ctx is cancelled.
func Slice[T any](items []T) func(ctx context.Context, itemCh chan<- T) error {
	return func(ctx context.Context, itemCh chan<- T) error {
		for _, item := range items {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case itemCh <- item:
			}
		}

		return nil
	}
}
