package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 8*time.Second, p.Delay(4))
	assert.Equal(t, 8*time.Second, p.Delay(10))
}

func TestRetryPolicy_Do(t *testing.T) {
	boom := errors.New("boom")

	t.Run("succeeds first time", func(t *testing.T) {
		rs := &recordingSleeper{}
		calls := 0
		err := DefaultRetryPolicy().Do(context.Background(), rs.Sleep, func(context.Context) error {
			calls++
			return nil
		}, nil)
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, rs.delays)
	})

	t.Run("recovers on third attempt", func(t *testing.T) {
		rs := &recordingSleeper{}
		calls := 0
		err := DefaultRetryPolicy().Do(context.Background(), rs.Sleep, func(context.Context) error {
			calls++
			if calls < 3 {
				return boom
			}
			return nil
		}, nil)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rs.delays)
	})

	t.Run("fourth failure is terminal", func(t *testing.T) {
		rs := &recordingSleeper{}
		calls := 0
		var attempts []int
		err := DefaultRetryPolicy().Do(context.Background(), rs.Sleep, func(context.Context) error {
			calls++
			return boom
		}, func(attempt int, _ time.Duration, _ error) {
			attempts = append(attempts, attempt)
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 4, calls)
		assert.Equal(t, []int{1, 2, 3}, attempts)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, rs.delays)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := DefaultRetryPolicy().Do(ctx, (&recordingSleeper{}).Sleep, func(context.Context) error {
			calls++
			cancel()
			return boom
		}, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
