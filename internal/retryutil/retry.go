// Package retryutil provides bounded retry with exponential backoff for
// calls against external services. Every collaborator client in this repo
// (trend lookup, AI enrichment, mention counting) shares this policy instead
// of carrying its own sleep loop.
package retryutil

import (
	"context"
	"time"
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second}
}

func (p Policy) normalize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// RetryAfterer lets an error dictate its own wait, e.g. an HTTP 429
// carrying a Retry-After header.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// Do runs fn up to p.MaxAttempts times. retryable decides whether a failure
// is worth another attempt; a nil retryable retries everything. The delay
// doubles per attempt, capped at MaxDelay, unless the error supplies its own
// via RetryAfterer. Context cancellation aborts the wait and returns the
// last error observed.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, retryable func(err error) bool) error {
	p = p.normalize()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.delay(attempt)
		if ra, ok := err.(RetryAfterer); ok && ra.RetryAfter() > 0 {
			wait = ra.RetryAfter()
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
