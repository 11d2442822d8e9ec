package distribute

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noopSource(ctx context.Context, itemCh chan<- string) error { return nil }

func noopWorker(ctx context.Context, item string) error { return nil }

func TestOneToN(t *testing.T) {
	t.Run("concurrency below zero", func(t *testing.T) {
		err := OneToN(context.Background(), noopSource, noopWorker, -1)
		require.ErrorIs(t, err, ErrNotEnoughConcurrency)
	})

	t.Run("concurrency is zero", func(t *testing.T) {
		err := OneToN(context.Background(), noopSource, noopWorker, 0)
		require.ErrorIs(t, err, ErrNotEnoughConcurrency)
	})

	t.Run("sourceFn fails", func(t *testing.T) {
		err := OneToN(
			context.Background(),
			func(ctx context.Context, itemCh chan<- string) error {
				return fmt.Errorf("sourceFn failed")
			},
			noopWorker,
			1,
		)
		require.EqualError(t, err, "sourceFn failed")
	})

	t.Run("workerFn fails", func(t *testing.T) {
		err := OneToN(
			context.Background(),
			func(ctx context.Context, itemCh chan<- string) error {
				itemCh <- "we need an item, otherwise workerFn is never called"
				return nil
			},
			func(ctx context.Context, item string) error {
				return fmt.Errorf("workerFn failed")
			},
			1,
		)
		require.EqualError(t, err, "workerFn failed")
	})

	t.Run("worker failure stops Slice source", func(t *testing.T) {
		items := make([]int, 100)
		var calls int64
		err := OneToN(
			context.Background(),
			Slice(items),
			func(ctx context.Context, item int) error {
				atomic.AddInt64(&calls, 1)
				return fmt.Errorf("stop")
			},
			1,
		)
		require.EqualError(t, err, "stop")
		require.Less(t, atomic.LoadInt64(&calls), int64(len(items)))
	})

	t.Run("concurrency of one keeps order", func(t *testing.T) {
		var seen []int
		err := OneToN(
			context.Background(),
			Slice([]int{3, 1, 2}),
			func(ctx context.Context, item int) error {
				seen = append(seen, item)
				return nil
			},
			1,
		)
		require.NoError(t, err)
		require.Equal(t, []int{3, 1, 2}, seen)
	})

	t.Run("more workers than items", func(t *testing.T) {
		results := make([]int, 8)
		err := OneToN(
			context.Background(),
			Slice([]int{0, 1, 2, 3, 4, 5, 6, 7}),
			func(ctx context.Context, idx int) error {
				results[idx] = idx + 1
				return nil
			},
			16,
		)
		require.NoError(t, err)
		require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, results)
	})

	t.Run("more items than workers", func(t *testing.T) {
		var sum int64
		N := 1000
		items := make([]int64, 0, N)
		for i := 1; i <= N; i++ {
			items = append(items, int64(i))
		}
		err := OneToN(
			context.Background(),
			Slice(items),
			func(ctx context.Context, item int64) error {
				atomic.AddInt64(&sum, item)
				return nil
			},
			16,
		)
		require.NoError(t, err)
		gaussSum := int((N*N + N) / 2)
		require.Equal(t, int64(gaussSum), sum)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := OneToN(ctx, Slice([]string{"a", "b"}), noopWorker, 2)
		require.ErrorIs(t, err, context.Canceled)
	})
}
