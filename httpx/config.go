package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Use DefaultConfig() as a baseline.
type Config struct {
	// Timeout bounds every request that does not carry its own
	// WithRequestTimeout. If the request context already has an earlier
	// deadline, that one wins. Zero disables it.
	Timeout time.Duration

	// Transport is the underlying RoundTripper. If nil, a tuned default is used.
	Transport http.RoundTripper

	// DefaultHeaders are copied into every request (request headers win).
	DefaultHeaders http.Header

	// UserAgent is set when the request does not already have a User-Agent header.
	UserAgent string

	// MaxBodyBytes is the largest response body Send accepts; longer bodies
	// fail with ErrBodyTooLarge. If zero, DefaultMaxBodyBytes is used.
	// Negative means unlimited.
	MaxBodyBytes int64

	// RequestID configures correlation id propagation.
	RequestID RequestIDConfig
}

const DefaultMaxBodyBytes int64 = 16 << 20 // 16MiB

// DefaultConfig returns a conservative baseline.
func DefaultConfig() Config {
	return Config{
		Timeout:        60 * time.Second,
		Transport:      DefaultTransport(),
		DefaultHeaders: make(http.Header),
		MaxBodyBytes:   DefaultMaxBodyBytes,
		RequestID:      DefaultRequestIDConfig(),
	}
}
