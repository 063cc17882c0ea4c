package httpx

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Error represents a request that never produced a complete response:
// dial/TLS failures, timeouts, cancellation, hook rejections and body read
// errors.
type Error struct {
	Method string
	URL    string

	// RequestID is the value of the configured RequestID header, if any.
	RequestID string

	// Cause is the underlying error.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if strings.TrimSpace(e.Method) != "" {
		b.WriteString(strings.ToUpper(strings.TrimSpace(e.Method)))
		b.WriteString(" ")
	}
	if strings.TrimSpace(e.URL) != "" {
		b.WriteString(strings.TrimSpace(e.URL))
		b.WriteString(": ")
	}
	b.WriteString("request failed")
	if e.RequestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(e.RequestID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
