package borders

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lgc202/borders-go/httpx"
	"github.com/lgc202/borders-go/signature"
)

type options struct {
	host      string
	secure    bool
	timeout   int
	digest    signature.DigestEncoding
	userAgent string
	maxBody   int64
	transport http.RoundTripper
	limiter   httpx.RateLimiter
	before    []httpx.BeforeHook
	after     []httpx.AfterHook
	mws       []httpx.Middleware
	now       func() time.Time
}

// Option configures a Client at construction.
type Option func(*options)

// WithHost replaces DefaultHost. Include a port when needed
// ("127.0.0.1:8080").
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

func WithSecure(secure bool) Option {
	return func(o *options) { o.secure = secure }
}

// WithTimeout sets the initial timeout in seconds. See Client.SetTimeout.
func WithTimeout(seconds int) Option {
	return func(o *options) { o.timeout = seconds }
}

func WithDigestEncoding(e signature.DigestEncoding) Option {
	return func(o *options) { o.digest = e }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithMaxResponseBytes sets the largest response body a call accepts.
// Longer bodies fail with ErrTransport wrapping httpx.ErrBodyTooLarge.
// Zero keeps httpx.DefaultMaxBodyBytes; negative removes the limit.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) { o.maxBody = n }
}

// WithTransport replaces the default tuned *http.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithRateLimit throttles outgoing calls to rps per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHooks installs observation hooks on the transport, e.g. logging or
// metrics.Collector hooks.
func WithHooks(before []httpx.BeforeHook, after []httpx.AfterHook) Option {
	return func(o *options) {
		o.before = append(o.before, before...)
		o.after = append(o.after, after...)
	}
}

func WithMiddleware(mws ...httpx.Middleware) Option {
	return func(o *options) { o.mws = append(o.mws, mws...) }
}

// WithClock overrides the time source used for the expires parameter.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// CallOption adjusts a single call. Call options are applied after the
// client defaults, so they win where both set the same thing.
type CallOption = httpx.RequestOption

// WithHeader sets a request header, overriding the default Content-Type
// when key is "Content-Type".
func WithHeader(key, value string) CallOption {
	return httpx.WithHeader(key, value)
}

func WithHeaders(h http.Header) CallOption {
	return httpx.WithHeaders(h)
}

// WithCallTimeout replaces the client timeout as the deadline of this call.
// It does not change the expires parameter.
func WithCallTimeout(d time.Duration) CallOption {
	return httpx.WithRequestTimeout(d)
}
