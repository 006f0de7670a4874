package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// BindError reports an argument that could not be bound into the request
// template at call time: a value incompatible with its expander or
// collection format, or an invocation of an ignored operation.
type BindError struct {
	ConfigKey string
	Reason    string
	Cause     error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	msg := fmt.Sprintf("cannot bind arguments for %s: %s", e.ConfigKey, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *BindError) Unwrap() error { return e.Cause }

// EncodeError reports a codec failure while producing the request body.
// It is never retried.
type EncodeError struct {
	ConfigKey string
	Cause     error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding body for %s: %v", e.ConfigKey, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error { return e.Cause }

// DecodeError reports a codec failure while reading the response body.
// It is never retried.
type DecodeError struct {
	ConfigKey string
	Cause     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response for %s: %v", e.ConfigKey, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Cause }

// RemoteError is a non-2xx response after error decoding. Message and
// Details are extracted from the response body when it is JSON of the
// common {"message": ..., "errors": [...]} shape.
type RemoteError struct {
	StatusCode int
	Status     string
	Method     string
	ConfigKey  string
	Message    string
	Details    []string
	Headers    http.Header
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("remote error (%d %s) at %s [%s]: %s - %v",
			e.StatusCode, e.Status, e.Method, e.ConfigKey, e.Message, e.Details)
	}
	return fmt.Sprintf("remote error (%d %s) at %s [%s]: %s",
		e.StatusCode, e.Status, e.Method, e.ConfigKey, e.Message)
}

// RetryableError is the only signal that drives the retryer. It carries
// the causal error, the HTTP method (so policies can distinguish
// idempotence) and an optional absolute retry-after time.
type RetryableError struct {
	Cause      error
	Method     string
	RetryAfter *time.Time
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error on %s: %v", e.Method, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RetryableError) Unwrap() error { return e.Cause }

// Error type check helpers, for building resilient handling logic on top
// of bound operations.

// IsRetryable checks if the error is (or wraps) a retryable failure.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsRemote checks if the error is (or wraps) a non-2xx remote response.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// StatusCode extracts the HTTP status from a remote error, if present.
func StatusCode(err error) (int, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode, true
	}
	return 0, false
}

// IsNotFound checks if the error is a not found error (404).
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// IsRateLimited checks if the error is a rate limit error (429).
func IsRateLimited(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusTooManyRequests
}

// IsServerError checks if the error is a server error (5xx).
func IsServerError(err error) bool {
	code, ok := StatusCode(err)
	return ok && code >= 500 && code < 600
}
