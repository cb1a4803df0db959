package llmbridge

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	pe := ProviderError{BridgeError: BridgeError{Message: "boom"}, Provider: "anthropic"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"authentication", &AuthenticationError{pe}, false},
		{"context length", &ContextLengthError{pe}, false},
		{"configuration", &ConfigurationError{BridgeError{Message: "bad config"}}, false},
		{"abort", &AbortError{BridgeError{Message: "aborted"}}, false},
		{"rate limit", &RateLimitError{pe}, true},
		{"server", &ServerError{pe}, true},
		{"network", &NetworkError{BridgeError{Message: "refused"}}, true},
		{"provider retryable flag set", &ProviderError{Retryable: true}, true},
		{"provider retryable flag unset", &ProviderError{}, false},
		{"plain error", errors.New("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapContextErr(t *testing.T) {
	if WrapContextErr(nil) != nil {
		t.Error("nil should stay nil")
	}

	wrapped := WrapContextErr(context.Canceled)
	var abort *AbortError
	if !errors.As(wrapped, &abort) {
		t.Errorf("cancellation should become *AbortError, got %T", wrapped)
	}
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("wrapped abort should unwrap to context.Canceled")
	}

	wrapped = WrapContextErr(context.DeadlineExceeded)
	var network *NetworkError
	if !errors.As(wrapped, &network) {
		t.Errorf("deadline expiry should become *NetworkError, got %T", wrapped)
	}

	plain := errors.New("not a context error")
	if WrapContextErr(plain) != plain {
		t.Error("non-context errors pass through unchanged")
	}
}

func TestIsAbortSeesWrappedErrors(t *testing.T) {
	inner := &AbortError{BridgeError{Message: "user stop"}}
	if !IsAbort(inner) {
		t.Error("direct AbortError not recognized")
	}
	if !IsAbort(fmt.Errorf("completing request: %w", inner)) {
		t.Error("wrapped AbortError not recognized")
	}
	if IsAbort(&NetworkError{BridgeError{Message: "refused"}}) {
		t.Error("NetworkError must not read as abort")
	}
}

func TestBridgeErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &BridgeError{Message: "operation failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("BridgeError should unwrap to its cause")
	}
	if err.Error() != "operation failed: root cause" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	bare := &BridgeError{Message: "no cause"}
	if bare.Error() != "no cause" {
		t.Errorf("unexpected message without cause: %q", bare.Error())
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &RateLimitError{ProviderError{
		BridgeError: BridgeError{Message: "too many requests"},
		Provider:    "anthropic",
		StatusCode:  429,
		Retryable:   true,
	}}
	want := "[anthropic] too many requests (status=429, retryable=true)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
