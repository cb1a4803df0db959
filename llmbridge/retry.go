package llmbridge

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures retry behavior with exponential backoff.
type RetryPolicy struct {
	MaxRetries        int     // retry attempts beyond the initial call
	BaseDelay         float64 // initial delay in seconds
	MaxDelay          float64 // cap on the delay between retries
	BackoffMultiplier float64
	Jitter            bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the default policy: two retries, 1s base delay,
// doubling with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          30.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay calculates the delay for attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		delay = delay * (0.5 + rand.Float64())
	}
	return time.Duration(delay * float64(time.Second))
}

// RetryBackend wraps a Backend and retries retryable failures. Aborts and
// non-retryable provider errors pass through immediately.
type RetryBackend struct {
	inner  Backend
	policy RetryPolicy
}

// WithRetry wraps backend with the given policy.
func WithRetry(backend Backend, policy RetryPolicy) *RetryBackend {
	return &RetryBackend{inner: backend, policy: policy}
}

// Complete delegates to the wrapped backend, retrying per the policy.
func (r *RetryBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := r.inner.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	for attempt := 0; attempt < r.policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return nil, err
		}

		delay := r.policy.Delay(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return nil, WrapContextErr(ctx.Err())
		case <-time.After(delay):
		}

		resp, err = r.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
	}

	return nil, err
}
