package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// Sentinel errors for every failure category a cycle can surface. Callers
// distinguish them with errors.Is.
var (
	// ErrRateLimited means the local gate refused the call. Retryable after
	// a delay; no external request was made.
	ErrRateLimited = eris.New("rate limit exceeded")

	// ErrCircuitOpen means the dependency is presumed unhealthy. Retryable
	// after the reset timeout.
	ErrCircuitOpen = eris.New("circuit breaker is open")

	// ErrServiceUnavailable means retries were exhausted against a failing
	// dependency.
	ErrServiceUnavailable = eris.New("service unavailable")

	// ErrMalformedResponse means the provider returned content that failed
	// structural validation. Never retried automatically.
	ErrMalformedResponse = eris.New("malformed provider response")

	// ErrAuthFailure means invalid credentials. Never retried.
	ErrAuthFailure = eris.New("authentication failed")

	// ErrPermissionFailure means the credentials lack permission for the
	// operation. Never retried.
	ErrPermissionFailure = eris.New("permission denied")

	// ErrValidationFailure means the platform rejected the request content
	// (e.g. reply text refused). Never retried.
	ErrValidationFailure = eris.New("request rejected by platform")
)

// TransientError wraps an error that is safe to retry (e.g. 429, 5xx,
// network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRetryable reports whether a failed external call may be attempted again.
// Auth, permission, validation, and malformed-response failures are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailure) ||
		errors.Is(err, ErrPermissionFailure) ||
		errors.Is(err, ErrValidationFailure) ||
		errors.Is(err, ErrMalformedResponse) {
		return false
	}
	return IsTransient(err)
}

// ErrorFromStatus maps an HTTP status code from an external dependency onto
// the failure taxonomy. Returns nil for 2xx.
func ErrorFromStatus(op string, statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 401:
		return eris.Wrapf(ErrAuthFailure, "%s: status %d", op, statusCode)
	case statusCode == 403:
		return eris.Wrapf(ErrPermissionFailure, "%s: status %d", op, statusCode)
	case statusCode == 400 || statusCode == 422:
		return eris.Wrapf(ErrValidationFailure, "%s: status %d", op, statusCode)
	case IsTransientHTTPStatus(statusCode):
		return NewTransientError(eris.Errorf("%s: status %d", op, statusCode), statusCode)
	default:
		return eris.Errorf("%s: unexpected status %d", op, statusCode)
	}
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
