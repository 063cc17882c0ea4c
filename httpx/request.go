package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type RequestOption interface{ apply(*requestConfig) }

type requestOptionFunc func(*requestConfig)

func (f requestOptionFunc) apply(c *requestConfig) { f(c) }

type requestConfig struct {
	header  http.Header
	timeout time.Duration

	bodyBytes []byte
}

// WithHeader sets a request header, replacing earlier values for key
// (including default headers).
func WithHeader(key, value string) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Set(key, value)
	})
}

func WithHeaders(h http.Header) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		if h == nil {
			return
		}
		if c.header == nil {
			c.header = make(http.Header)
		}
		for k, vv := range h {
			c.header.Del(k)
			for _, v := range vv {
				c.header.Add(k, v)
			}
		}
	})
}

// WithRequestTimeout sets the deadline for this request, replacing
// Config.Timeout. The last one applied wins. If the request context already
// has an earlier deadline, that one wins.
func WithRequestTimeout(d time.Duration) RequestOption {
	return requestOptionFunc(func(c *requestConfig) { c.timeout = d })
}

// WithBody sets the request body. The bytes are copied and can be replayed
// through req.GetBody.
func WithBody(b []byte) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		c.bodyBytes = append([]byte(nil), b...)
	})
}

type requestTimeoutKey struct{}

func withRequestTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, requestTimeoutKey{}, d)
}

func requestTimeout(ctx context.Context) (time.Duration, bool) {
	if ctx == nil {
		return 0, false
	}
	d, ok := ctx.Value(requestTimeoutKey{}).(time.Duration)
	return d, ok
}

// NewRequest builds a request for an absolute URL. The query string is sent
// exactly as given: callers that sign over it rely on the order and
// encoding being preserved.
func (c *Client) NewRequest(ctx context.Context, method, rawURL string, opts ...RequestOption) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := requestConfig{}
	for _, o := range opts {
		if o != nil {
			o.apply(&rc)
		}
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: rawURL, Err: errors.New("url must be absolute")}
	}

	if rc.timeout > 0 {
		ctx = withRequestTimeout(ctx, rc.timeout)
	}

	var body io.Reader
	if rc.bodyBytes != nil {
		body = bytes.NewReader(rc.bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), body)
	if err != nil {
		return nil, err
	}
	if rc.bodyBytes != nil {
		b := rc.bodyBytes
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	}

	// Apply headers: default headers first, then request headers override.
	for k, vv := range c.defaultHeaders {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	for k, vv := range rc.header {
		req.Header.Del(k)
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.requestID.Header != "" && req.Header.Get(c.requestID.Header) == "" {
		if c.requestID.New != nil {
			if id := strings.TrimSpace(c.requestID.New()); id != "" {
				req.Header.Set(c.requestID.Header, id)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return req, nil
}
