package llmbridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend returns canned results in sequence, repeating the last one.
type fakeBackend struct {
	mu      sync.Mutex
	calls   int
	results []fakeResult
}

type fakeResult struct {
	resp *Response
	err  error
}

func (f *fakeBackend) Complete(_ context.Context, _ Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	return r.resp, r.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         0.001,
		MaxDelay:          0.01,
		BackoffMultiplier: 2.0,
	}
}

func serverErr() error {
	return &ServerError{ProviderError{
		BridgeError: BridgeError{Message: "internal server error"},
		Provider:    "anthropic",
		StatusCode:  500,
		Retryable:   true,
	}}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	ok := &Response{ID: "resp_1", Content: []ContentBlock{TextBlock("hi")}, StopReason: StopEndTurn}
	backend := &fakeBackend{results: []fakeResult{
		{err: serverErr()},
		{resp: ok},
	}}

	resp, err := WithRetry(backend, fastPolicy()).Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != "resp_1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if backend.callCount() != 2 {
		t.Errorf("expected 2 calls, got %d", backend.callCount())
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	backend := &fakeBackend{results: []fakeResult{{err: serverErr()}}}

	_, err := WithRetry(backend, fastPolicy()).Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected the final error to surface")
	}
	// Initial call plus MaxRetries.
	if backend.callCount() != 3 {
		t.Errorf("expected 3 calls, got %d", backend.callCount())
	}
}

func TestRetryPassesThroughNonRetryable(t *testing.T) {
	authErr := &AuthenticationError{ProviderError{
		BridgeError: BridgeError{Message: "invalid api key"},
		Provider:    "anthropic",
		StatusCode:  401,
	}}
	backend := &fakeBackend{results: []fakeResult{{err: authErr}}}

	_, err := WithRetry(backend, fastPolicy()).Complete(context.Background(), Request{})
	var ae *AuthenticationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if backend.callCount() != 1 {
		t.Errorf("non-retryable errors must not be retried, got %d calls", backend.callCount())
	}
}

func TestRetryAbortsOnContextCancel(t *testing.T) {
	backend := &fakeBackend{results: []fakeResult{{err: serverErr()}}}
	policy := fastPolicy()
	policy.BaseDelay = 10 // long enough that cancellation wins the select

	ctx, cancel := context.WithCancel(context.Background())
	onRetryCalled := make(chan struct{}, 1)
	policy.OnRetry = func(error, int, time.Duration) {
		select {
		case onRetryCalled <- struct{}{}:
		default:
		}
		cancel()
	}

	_, err := WithRetry(backend, policy).Complete(ctx, Request{})
	<-onRetryCalled
	if !IsAbort(err) {
		t.Fatalf("cancellation during backoff should surface as abort, got %v", err)
	}
	if backend.callCount() != 1 {
		t.Errorf("no retry should run after cancellation, got %d calls", backend.callCount())
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 1, MaxDelay: 4, BackoffMultiplier: 2}

	if d := policy.Delay(0); d != time.Second {
		t.Errorf("attempt 0: got %v, want 1s", d)
	}
	if d := policy.Delay(1); d != 2*time.Second {
		t.Errorf("attempt 1: got %v, want 2s", d)
	}
	// 2^3 = 8 exceeds the cap.
	if d := policy.Delay(3); d != 4*time.Second {
		t.Errorf("attempt 3: got %v, want the 4s cap", d)
	}
}

func TestDelayJitterStaysInRange(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 1, MaxDelay: 30, BackoffMultiplier: 2, Jitter: true}

	for i := 0; i < 100; i++ {
		d := policy.Delay(0)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("jittered delay %v outside [0.5s, 1.5s]", d)
		}
	}
}
