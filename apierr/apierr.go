package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a request failure for callers that react per-class
// rather than per-status.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the typed request failure surfaced to callers after the
// translator has run its side effects.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("apierr: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("apierr: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// FromStatus translates an HTTP status into a typed error. message may be
// the server-provided detail; empty falls back to a generic per-status
// message.
func FromStatus(status int, message string) *Error {
	kind, fallback := classify(status)
	if message == "" {
		message = fallback
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// FromTransport translates a transport-level failure. Deadline expiry is
// reported as a timeout; everything else as a network error. Timeouts are
// never treated as auth failures.
func FromTransport(err error) *Error {
	kind := KindNetwork
	message := "network error"
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
		message = "request timed out"
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func classify(status int) (Kind, string) {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation, "bad request"
	case status == http.StatusUnprocessableEntity:
		return KindValidation, "validation failed"
	case status == http.StatusUnauthorized:
		return KindUnauthorized, "unauthorized access"
	case status == http.StatusForbidden:
		return KindForbidden, "access forbidden"
	case status == http.StatusNotFound:
		return KindNotFound, "resource not found"
	case status == http.StatusConflict:
		return KindConflict, "conflict occurred"
	case status == http.StatusTooManyRequests:
		return KindRateLimited, "too many requests"
	case status >= 500:
		return KindServer, "server error"
	default:
		return KindUnknown, fmt.Sprintf("error %d", status)
	}
}
