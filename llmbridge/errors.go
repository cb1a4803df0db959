package llmbridge

import (
	"context"
	"errors"
	"fmt"
)

// BridgeError is the base error type for all backend errors.
type BridgeError struct {
	Message string
	Cause   error
}

func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// ProviderError represents an error returned by the inference provider.
type ProviderError struct {
	BridgeError
	Provider   string
	StatusCode int
	Retryable  bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// Concrete provider error types.

type AuthenticationError struct{ ProviderError }
type RateLimitError struct{ ProviderError }
type ServerError struct{ ProviderError }
type ContextLengthError struct{ ProviderError }

// Non-provider errors.

// NetworkError indicates the request never reached the provider or the
// connection failed mid-flight.
type NetworkError struct{ BridgeError }

// AbortError indicates the caller cancelled the request. It is a clean
// user-initiated outcome, not a failure.
type AbortError struct{ BridgeError }

// ConfigurationError indicates the backend is not usable as configured.
type ConfigurationError struct{ BridgeError }

// WrapContextErr converts a context cancellation into an *AbortError and a
// deadline expiry into a *NetworkError. Returns nil for nil.
func WrapContextErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return &AbortError{BridgeError{Message: "request aborted", Cause: err}}
	case errors.Is(err, context.DeadlineExceeded):
		return &NetworkError{BridgeError{Message: "request timed out", Cause: err}}
	default:
		return err
	}
}

// IsAbort reports whether err is (or wraps) an AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// IsRetryable returns true if the error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *AuthenticationError:
		return false
	case *ContextLengthError:
		return false
	case *ConfigurationError:
		return false
	case *AbortError:
		return false
	case *RateLimitError:
		return true
	case *ServerError:
		return true
	case *NetworkError:
		return true
	case *ProviderError:
		return e.Retryable
	default:
		return false
	}
}
