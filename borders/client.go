package borders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lgc202/borders-go/httpx"
	"github.com/lgc202/borders-go/signature"
	"github.com/lgc202/borders-go/version"
)

const (
	// DefaultHost is the production API host.
	DefaultHost = "api.Borders.biemedia.com"

	// DefaultTimeout is the default request lifetime in seconds.
	DefaultTimeout = 60

	// KeyLength is the exact length of both API keys.
	KeyLength = 64
)

// Client talks to the BORDERS API. It is safe for concurrent use; SetSecure
// and SetTimeout affect calls that start after they return.
type Client struct {
	signer *signature.Signer
	host   string

	secure  atomic.Bool
	timeout atomic.Int64

	http *httpx.Client
	now  func() time.Time
}

// New returns a client for the key pair. Both keys must be exactly
// KeyLength characters; otherwise the error is ErrInvalidCredentials.
func New(publicKey, privateKey string, opts ...Option) (*Client, error) {
	if len(publicKey) != KeyLength || len(privateKey) != KeyLength {
		return nil, &Error{
			Kind:  ErrInvalidCredentials,
			Cause: fmt.Errorf("keys must be %d characters (public %d, private %d)", KeyLength, len(publicKey), len(privateKey)),
		}
	}

	o := options{
		host:    DefaultHost,
		timeout: DefaultTimeout,
		digest:  signature.DigestRaw,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.host == "" {
		o.host = DefaultHost
	}
	if o.userAgent == "" {
		o.userAgent = version.UserAgent()
	}

	hc, err := httpx.New(
		// The per-call deadline comes from the client timeout (see Do).
		httpx.WithTimeout(0),
		httpx.WithTransport(o.transport),
		httpx.WithDefaultHeader("Content-Type", "application/json"),
		httpx.WithUserAgent(o.userAgent),
		httpx.WithMaxBodyBytes(o.maxBody),
	)
	if err != nil {
		return nil, err
	}
	hc.WithMiddleware(o.mws...).WithHooks(o.before, o.after)
	if o.limiter != nil {
		hc.WithRateLimiter(o.limiter)
	}

	c := &Client{
		signer: signature.New(publicKey, privateKey, signature.WithDigestEncoding(o.digest)),
		host:   o.host,
		http:   hc,
		now:    o.now,
	}
	c.secure.Store(o.secure)
	c.timeout.Store(int64(o.timeout))
	return c, nil
}

// IsSecure reports whether calls use https.
func (c *Client) IsSecure() bool { return c.secure.Load() }

func (c *Client) SetSecure(secure bool) { c.secure.Store(secure) }

// Timeout returns the timeout in seconds.
func (c *Client) Timeout() int { return int(c.timeout.Load()) }

// SetTimeout sets how long, in seconds, a request stays valid. It is used
// both for the expires parameter and as the call deadline. Values <= 0
// disable the deadline.
func (c *Client) SetTimeout(seconds int) { c.timeout.Store(int64(seconds)) }

func (c *Client) Host() string { return c.host }

// Signer exposes the request signer, e.g. to inspect a signable string.
func (c *Client) Signer() *signature.Signer { return c.signer }

// Get issues a signed GET and returns the response payload.
func (c *Client) Get(ctx context.Context, path string, params *Params, opts ...CallOption) (any, error) {
	return c.Do(ctx, http.MethodGet, path, nil, params, opts...)
}

// Post issues a signed POST. body must encode to a JSON object; a nil body,
// including a nil map or pointer, sends no body.
func (c *Client) Post(ctx context.Context, path string, body any, params *Params, opts ...CallOption) (any, error) {
	return c.Do(ctx, http.MethodPost, path, body, params, opts...)
}

// Put is reserved for file uploads, which this client does not implement.
// It never performs network I/O and always returns ErrUploadNotSupported.
func (c *Client) Put(_ context.Context, path string, _ any, _ *Params, _ ...CallOption) (any, error) {
	return nil, &Error{Kind: ErrUploadNotSupported, Method: http.MethodPut, URL: normalizePath(path)}
}

// Delete issues a signed DELETE and returns the response payload.
func (c *Client) Delete(ctx context.Context, path string, params *Params, opts ...CallOption) (any, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, params, opts...)
}

// Do runs the full pipeline for method, which must be GET, POST or DELETE in
// any case. The payload is decoded with json.Number for numbers.
func (c *Client) Do(ctx context.Context, method, path string, body any, params *Params, opts ...CallOption) (any, error) {
	sr, resp, err := c.exchange(ctx, method, path, body, params, opts)
	if err != nil {
		return nil, err
	}
	payload, uerr := unwrap(resp.Body)
	if uerr != nil {
		return nil, c.responseError(uerr, sr, resp)
	}
	return payload, nil
}

// Call is like Client.Do but decodes the payload into T.
func Call[T any](ctx context.Context, c *Client, method, path string, body any, params *Params, opts ...CallOption) (T, error) {
	var out T
	sr, resp, err := c.exchange(ctx, method, path, body, params, opts)
	if err != nil {
		return out, err
	}
	if _, uerr := unwrap(resp.Body); uerr != nil {
		return out, c.responseError(uerr, sr, resp)
	}
	if err := decodePayload(resp.Body, &out); err != nil {
		var zero T
		return zero, c.responseError(&Error{Kind: ErrInvalidResponse, Cause: err}, sr, resp)
	}
	return out, nil
}

// exchange builds, signs and transmits. It returns the raw response.
func (c *Client) exchange(ctx context.Context, method, path string, body any, params *Params, opts []CallOption) (*signedRequest, *httpx.Response, error) {
	method = strings.ToUpper(method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	case http.MethodPut:
		return nil, nil, &Error{Kind: ErrUploadNotSupported, Method: method, URL: normalizePath(path)}
	default:
		return nil, nil, &Error{Kind: ErrUnsupportedMethod, Method: method, URL: normalizePath(path)}
	}

	sr, err := c.prepare(method, path, body, params)
	if err != nil {
		return nil, nil, err
	}

	ropts := make([]httpx.RequestOption, 0, len(opts)+2)
	if sr.timeout > 0 {
		ropts = append(ropts, httpx.WithRequestTimeout(sr.timeout))
	}
	if sr.body != nil {
		ropts = append(ropts, httpx.WithBody(sr.body))
	}
	ropts = append(ropts, opts...)

	req, err := c.http.NewRequest(ctx, method, sr.url, ropts...)
	if err != nil {
		return nil, nil, &Error{Kind: ErrTransport, Method: method, URL: sr.url, Cause: err}
	}
	resp, err := c.http.Send(req)
	if err != nil {
		e := &Error{Kind: ErrTransport, Method: method, URL: sr.url, Cause: err}
		if he, ok := httpx.AsError(err); ok {
			e.RequestID = he.RequestID
			e.Cause = he.Cause
		}
		return nil, nil, e
	}
	// The status code is informational only; the envelope decides success.
	return sr, resp, nil
}

func (c *Client) responseError(e *Error, sr *signedRequest, resp *httpx.Response) *Error {
	e.Method = sr.method
	e.URL = sr.url
	e.StatusCode = resp.StatusCode
	e.Raw = truncate(resp.Body)
	e.RequestID = resp.Header.Get("X-Request-ID")
	return e
}
