package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Response is a fully read HTTP response. The status code is reported but
// never turned into an error by this package.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	httpClient *http.Client

	timeout        time.Duration
	defaultHeaders http.Header
	userAgent      string
	maxBody        int64

	requestID RequestIDConfig

	rateLimiter RateLimiter
	before      []BeforeHook
	after       []AfterHook
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	if cfg.Timeout < 0 {
		return nil, errors.New("httpx: negative timeout")
	}

	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = DefaultMaxBodyBytes
	}

	// Clone headers to avoid caller mutation.
	hdr := make(http.Header)
	for k, vv := range cfg.DefaultHeaders {
		for _, v := range vv {
			hdr.Add(k, v)
		}
	}

	c := &Client{
		httpClient:     &http.Client{Transport: rt},
		timeout:        cfg.Timeout,
		defaultHeaders: hdr,
		userAgent:      cfg.UserAgent,
		maxBody:        maxBody,
		requestID:      cfg.RequestID,
	}
	if c.requestID.New == nil && c.requestID.Header != "" {
		c.requestID.New = DefaultRequestID
	}
	return c, nil
}

// WithMiddleware wraps the underlying RoundTripper with middleware.
// Call this during initialization (before the client is used concurrently).
func (c *Client) WithMiddleware(mws ...Middleware) *Client {
	if len(mws) == 0 {
		return c
	}
	rt := c.httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.httpClient.Transport = chain(rt, mws)
	return c
}

// WithRateLimiter installs a client-wide rate limiter.
func (c *Client) WithRateLimiter(rl RateLimiter) *Client {
	c.rateLimiter = rl
	return c
}

// WithHooks adds hooks executed around every request.
func (c *Client) WithHooks(before []BeforeHook, after []AfterHook) *Client {
	c.before = append(c.before, before...)
	c.after = append(c.after, after...)
	return c
}

func withEarlierDeadline(ctx context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	if deadline.IsZero() {
		return ctx, func() {}
	}
	if existing, ok := ctx.Deadline(); ok && !existing.After(deadline) {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline)
}

// effectiveTimeout picks the request-scoped timeout when present, otherwise
// the client default.
func (c *Client) effectiveTimeout(ctx context.Context) time.Duration {
	if d, ok := requestTimeout(ctx); ok && d > 0 {
		return d
	}
	return c.timeout
}

// ErrBodyTooLarge is the cause of an *Error when a response body is longer
// than MaxBodyBytes. The body is never returned truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// Send executes the request once and reads the whole body. Any failure
// before the body is fully read, including a body over MaxBodyBytes, is
// returned as *Error; non-2xx responses are not errors.
func (c *Client) Send(req *http.Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	ctx := req.Context()
	if d := c.effectiveTimeout(ctx); d > 0 {
		ctx2, cancel := withEarlierDeadline(ctx, time.Now().Add(d))
		defer cancel()
		ctx = ctx2
	}
	req = req.Clone(ctx)

	start := time.Now()
	resp, err := c.send(ctx, req)
	dur := time.Since(start)

	if err != nil {
		err = &Error{
			Method:    req.Method,
			URL:       req.URL.String(),
			RequestID: c.RequestID(req, nil),
			Cause:     err,
		}
		resp = nil
	}
	for _, h := range c.after {
		if h != nil {
			h(req, resp, err, dur)
		}
	}
	return resp, err
}

func (c *Client) send(ctx context.Context, req *http.Request) (*Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	for _, h := range c.before {
		if h == nil {
			continue
		}
		if err := h(req); err != nil {
			return nil, err
		}
	}

	hr, err := c.httpClient.Do(req)
	if err != nil {
		// http.Client may return a non-nil resp alongside an error (e.g. redirect issues).
		if hr != nil && hr.Body != nil {
			_ = hr.Body.Close()
		}
		return nil, err
	}
	defer hr.Body.Close()

	var r io.Reader = hr.Body
	if c.maxBody > 0 && c.maxBody < math.MaxInt64 {
		// One extra byte tells a body of exactly maxBody from a longer one.
		r = io.LimitReader(hr.Body, c.maxBody+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if c.maxBody > 0 && int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	return &Response{
		StatusCode: hr.StatusCode,
		Header:     hr.Header,
		Body:       body,
	}, nil
}

// RequestID returns the correlation id of an exchange, preferring the one
// echoed by the server.
func (c *Client) RequestID(req *http.Request, resp *Response) string {
	if c.requestID.Header == "" {
		return ""
	}
	if resp != nil {
		if rid := strings.TrimSpace(resp.Header.Get(c.requestID.Header)); rid != "" {
			return rid
		}
	}
	return strings.TrimSpace(req.Header.Get(c.requestID.Header))
}
