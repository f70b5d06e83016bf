package fetch

import (
	"context"
	"time"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy re-issues a failed call up to MaxRetries times, waiting
// min(Base * 2^attempt, Cap) before retry attempt n (counted from 1).
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Cap        time.Duration
}

// DefaultRetryPolicy retries three times after 2s, 4s and 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Base: time.Second, Cap: 8 * time.Second}
}

// Delay returns the wait before retry attempt n.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.Cap > 0 && d >= p.Cap {
			return p.Cap
		}
	}
	return d
}

// Do runs fn once and then retries it according to the policy. onRetry, if
// set, is called before each wait. The last error is returned when every
// attempt fails. A done context stops the loop before the next attempt.
func (p RetryPolicy) Do(ctx context.Context, sleep Sleeper, fn func(ctx context.Context) error,
	onRetry func(attempt int, delay time.Duration, err error)) error {
	if sleep == nil {
		sleep = Sleep
	}

	err := fn(ctx)
	for attempt := 1; err != nil && attempt <= p.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := p.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		err = fn(ctx)
	}
	return err
}
