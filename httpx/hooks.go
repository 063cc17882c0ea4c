package httpx

import (
	"context"
	"net/http"
	"time"
)

// RateLimiter can be used to throttle outgoing requests.
// It should block until a token is available or ctx is canceled.
// *rate.Limiter from golang.org/x/time/rate satisfies it.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// BeforeHook runs right before the request is sent. A non-nil error aborts
// the request and is returned as the cause of an *Error.
type BeforeHook func(req *http.Request) error

// AfterHook observes the outcome. resp is nil when err is non-nil.
type AfterHook func(req *http.Request, resp *Response, err error, dur time.Duration)

type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to an http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func chain(rt http.RoundTripper, mws []Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		rt = mws[i](rt)
	}
	return rt
}
