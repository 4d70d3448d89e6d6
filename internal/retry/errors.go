package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ValidationError reports malformed input or configuration: a bad URL,
// an unknown host, an unsupported auth method. It is never retried, no
// matter how deeply it is wrapped.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// TransportError tags a network-level failure (connection refused or
// reset, timeout, DNS failure) as retryable while preserving the
// underlying cause for diagnostics.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned by Policy.Do once every attempt has failed
// with a retryable error. It is distinguishable from both the original
// transport error and from validation failures.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retryable reports whether an operation that failed with err should be
// attempted again. Validation errors win over everything else: an error
// chain containing a ValidationError is never retryable, even when a
// TransportError wraps it.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return false
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return true
	}
	return RetryableCause(err)
}

// RetryableCause classifies a raw error from the network stack, without
// looking for taxonomy tags: connection errors, timeouts and OS-level
// I/O failures qualify. Used at the point of failure to decide whether
// an underlying error should be tagged as a TransportError.
func RetryableCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return true
	}
	var serr *os.SyscallError
	return errors.As(err, &serr)
}
