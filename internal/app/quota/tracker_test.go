package quota_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkraev/linkforge/internal/app/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Run("first request creates the record already charged", func(t *testing.T) {
		tr := quota.NewTracker(quota.NewMemoryStore(), quota.Config{Quota: 10, Window: time.Minute}, nil)

		d, err := tr.CheckAndConsume(context.Background(), "1.2.3.4")

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(9), d.Remaining)
	})

	t.Run("denies the request after the quota is spent", func(t *testing.T) {
		tr := quota.NewTracker(quota.NewMemoryStore(), quota.Config{Quota: 3, Window: time.Minute}, nil)

		for i := 0; i < 3; i++ {
			d, err := tr.CheckAndConsume(context.Background(), "caller")
			require.NoError(t, err)
			assert.True(t, d.Allowed, "attempt %d should pass", i+1)
		}

		d, err := tr.CheckAndConsume(context.Background(), "caller")

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, int64(0), d.Remaining)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, d.RetryAfter, time.Minute)
	})

	t.Run("tracks callers independently", func(t *testing.T) {
		tr := quota.NewTracker(quota.NewMemoryStore(), quota.Config{Quota: 1, Window: time.Minute}, nil)

		d, _ := tr.CheckAndConsume(context.Background(), "a")
		assert.True(t, d.Allowed)
		d, _ = tr.CheckAndConsume(context.Background(), "a")
		assert.False(t, d.Allowed, "a should be out of quota")

		d, err := tr.CheckAndConsume(context.Background(), "b")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "b should still be allowed")
	})

	t.Run("grants a fresh quota after the window expires", func(t *testing.T) {
		tr := quota.NewTracker(quota.NewMemoryStore(), quota.Config{Quota: 1, Window: 30 * time.Millisecond}, nil)

		d, _ := tr.CheckAndConsume(context.Background(), "caller")
		assert.True(t, d.Allowed)
		d, _ = tr.CheckAndConsume(context.Background(), "caller")
		assert.False(t, d.Allowed)

		time.Sleep(40 * time.Millisecond)

		d, err := tr.CheckAndConsume(context.Background(), "caller")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(0), d.Remaining)
	})

	t.Run("concurrent callers never overspend", func(t *testing.T) {
		const quotaSize = 16
		tr := quota.NewTracker(quota.NewMemoryStore(), quota.Config{Quota: quotaSize, Window: time.Minute}, nil)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := tr.CheckAndConsume(context.Background(), "caller")
				if !assert.NoError(t, err) {
					return
				}
				if d.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, quotaSize, allowed)
	})
}

type failingStore struct{}

func (failingStore) Consume(context.Context, string, int64, time.Duration) (quota.Result, error) {
	return quota.Result{}, errors.New("connection refused")
}

func TestTrackerStoreOutage(t *testing.T) {
	t.Run("fail-open allows the request and marks remaining unknown", func(t *testing.T) {
		tr := quota.NewTracker(failingStore{}, quota.Config{Quota: 10, Window: time.Minute, FailOpen: true}, nil)

		d, err := tr.CheckAndConsume(context.Background(), "caller")

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, quota.RemainingUnknown, d.Remaining)
	})

	t.Run("fail-closed surfaces the store error", func(t *testing.T) {
		tr := quota.NewTracker(failingStore{}, quota.Config{Quota: 10, Window: time.Minute}, nil)

		_, err := tr.CheckAndConsume(context.Background(), "caller")

		assert.Error(t, err)
	})
}
