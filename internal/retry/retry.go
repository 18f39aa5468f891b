// Package retry bounds calls to external services with a per-attempt
// timeout, a client side rate limit and exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"fjacquet/statement-insights/internal/parsererror"

	"golang.org/x/time/rate"
)

// DefaultBackoff is the delay before the first retry.
const DefaultBackoff = 500 * time.Millisecond

// Policy describes how an operation is attempted.
type Policy struct {
	MaxRetries int
	Timeout    time.Duration
	Backoff    time.Duration
	Limiter    *rate.Limiter
	// Retryable reports whether a failed attempt may be repeated. When nil
	// every error except cancellation and configuration errors is retried.
	Retryable func(error) bool
}

// NewPolicy creates a policy allowing requestsPerMinute calls. A zero or
// negative rate disables limiting.
func NewPolicy(maxRetries int, timeout time.Duration, requestsPerMinute int) Policy {
	p := Policy{MaxRetries: maxRetries, Timeout: timeout, Backoff: DefaultBackoff}
	if requestsPerMinute > 0 {
		p.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return p
}

// Do runs op until it succeeds, the retry budget is spent or ctx ends.
// Each attempt gets its own context bounded by Timeout. The last error is
// returned unchanged.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if p.Limiter != nil {
			if werr := p.Limiter.Wait(ctx); werr != nil {
				if err != nil {
					return err
				}
				return werr
			}
		}

		err = p.attempt(ctx, op)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt >= p.MaxRetries || !p.retryable(err) {
			return err
		}

		delay := p.Backoff << attempt
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}

func (p Policy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return op(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return op(callCtx)
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return parsererror.CodeOf(err) != parsererror.CodeConfiguration
}
