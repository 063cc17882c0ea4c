package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRequest_KeepsRawQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	raw := "z=1&a=hello+world&expires=10&signature=ab/cd"
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL+"/v1?"+raw)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Send(req); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotQuery != raw {
		t.Fatalf("query reordered or re-encoded: %q", gotQuery)
	}
}

func TestNewRequest_RejectsRelativeURL(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.NewRequest(context.Background(), http.MethodGet, "/v1/test"); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestNewRequest_HeaderPrecedence(t *testing.T) {
	c, err := New(
		WithDefaultHeader("Content-Type", "application/json"),
		WithUserAgent("ua/1"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodPost, "http://example.test/x",
		WithHeader("Content-Type", "text/plain"),
		WithHeaders(http.Header{"X-Tenant": {"t1"}}),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != "text/plain" {
		t.Fatalf("Content-Type=%q", got)
	}
	if got := req.Header.Get("X-Tenant"); got != "t1" {
		t.Fatalf("X-Tenant=%q", got)
	}
	if got := req.Header.Get("User-Agent"); got != "ua/1" {
		t.Fatalf("User-Agent=%q", got)
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestNewRequest_BodyIsReplayable(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodPost, "http://example.test/x",
		WithBody([]byte(`{"request":{}}`)),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.GetBody == nil {
		t.Fatalf("expected GetBody")
	}
	for i := 0; i < 2; i++ {
		rc, err := req.GetBody()
		if err != nil {
			t.Fatalf("GetBody: %v", err)
		}
		b, _ := io.ReadAll(rc)
		if string(b) != `{"request":{}}` {
			t.Fatalf("body=%q", b)
		}
	}
}

func TestSend_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"response":null}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.Send(req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if string(resp.Body) != `{"response":null}` {
		t.Fatalf("body=%q", resp.Body)
	}
}

func TestSend_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		_, _ = w.Write([]byte(strings.Repeat("a", n)))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithMaxBodyBytes(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL+"?n=10")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.Send(req)
	if err != nil {
		t.Fatalf("Send at the limit: %v", err)
	}
	if len(resp.Body) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(resp.Body))
	}

	req, err = c.NewRequest(context.Background(), http.MethodGet, srv.URL+"?n=11")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err = c.Send(req)
	if resp != nil {
		t.Fatalf("expected no response, got %d bytes", len(resp.Body))
	}
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if _, ok := AsError(err); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestSend_BodyLimitDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithMaxBodyBytes(-1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.Send(req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(resp.Body) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(resp.Body))
	}
}

func TestSend_RequestTimeoutOverridesClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithTimeout(2 * time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL,
		WithRequestTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.Send(req)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	he, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *httpx.Error, got %T", err)
	}
	if he.Method != http.MethodGet || !strings.HasPrefix(he.URL, srv.URL) {
		t.Fatalf("unexpected error fields: %+v", he)
	}
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}

	// A later, longer per-request timeout wins over the earlier one.
	req, err = c.NewRequest(context.Background(), http.MethodGet, srv.URL,
		WithRequestTimeout(50*time.Millisecond),
		WithRequestTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Send(req); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, addr)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.Send(req)
	if err == nil {
		t.Fatalf("expected error")
	}
	var ue *url.Error
	if !errors.As(err, &ue) {
		t.Fatalf("expected wrapped *url.Error, got %v", err)
	}
}

func TestHooksAndMiddleware(t *testing.T) {
	var calls int32
	c, err := New(WithTransport(RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"X-Request-Id": {"srv-id"}},
			Body:       io.NopCloser(strings.NewReader(`ok`)),
			Request:    r,
		}, nil
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var sawMiddleware, sawBefore bool
	var afterStatus int
	var afterRID string
	c.WithMiddleware(func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			sawMiddleware = r.Header.Get("X-Tenant") == "a"
			return next.RoundTrip(r)
		})
	}).WithHooks(
		[]BeforeHook{func(req *http.Request) error {
			req.Header.Set("X-Tenant", "a")
			sawBefore = true
			return nil
		}},
		[]AfterHook{func(req *http.Request, resp *Response, err error, dur time.Duration) {
			if resp != nil {
				afterStatus = resp.StatusCode
				afterRID = c.RequestID(req, resp)
			}
		}},
	)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "http://example.test/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Send(req); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !sawBefore || !sawMiddleware {
		t.Fatalf("before=%v middleware=%v", sawBefore, sawMiddleware)
	}
	if afterStatus != http.StatusOK || afterRID != "srv-id" {
		t.Fatalf("after status=%d rid=%q", afterStatus, afterRID)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one round trip, got %d", calls)
	}
}

func TestBeforeHookErrorAborts(t *testing.T) {
	c, err := New(WithTransport(RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("transport must not be called")
		return nil, nil
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	boom := errors.New("boom")
	c.WithHooks([]BeforeHook{func(*http.Request) error { return boom }}, nil)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "http://example.test/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.Send(req)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

type denyLimiter struct{}

func (denyLimiter) Wait(context.Context) error { return context.Canceled }

func TestRateLimiterError(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.WithRateLimiter(denyLimiter{})

	req, err := c.NewRequest(context.Background(), http.MethodGet, "http://example.test/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := c.Send(req); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v any
	if err := DecodeJSON([]byte(` {"n": 12345678901234567890} `), &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	m := v.(map[string]any)
	if got := m["n"].(interface{ String() string }).String(); got != "12345678901234567890" {
		t.Fatalf("number lost precision: %s", got)
	}

	for _, in := range []string{``, `not json`, `{} {}`, `{"a":1} x`} {
		if err := DecodeJSON([]byte(in), &v); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNewTransport(t *testing.T) {
	proxy, _ := url.Parse("http://proxy.internal:3128")
	tr := NewTransport(TransportConfig{
		ProxyURL:            proxy,
		DialTimeout:         time.Second,
		MaxIdleConnsPerHost: 3,
		InsecureSkipVerify:  true,
	})
	if tr.MaxIdleConnsPerHost != 3 {
		t.Fatalf("MaxIdleConnsPerHost=%d", tr.MaxIdleConnsPerHost)
	}
	if tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify")
	}
	req, _ := http.NewRequest(http.MethodGet, "http://api.example.test/", nil)
	got, err := tr.Proxy(req)
	if err != nil || got == nil || got.Host != "proxy.internal:3128" {
		t.Fatalf("proxy=%v err=%v", got, err)
	}
}

func TestRequestIDConfig(t *testing.T) {
	c, err := New(WithRequestID(RequestIDConfig{
		Header: "X-Correlation-ID",
		New:    func() string { return "fixed-id" },
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "http://example.test/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if got := req.Header.Get("X-Correlation-ID"); got != "fixed-id" {
		t.Fatalf("X-Correlation-ID=%q", got)
	}
	if req.Header.Get("X-Request-ID") != "" {
		t.Fatalf("default header should not be set")
	}

	// A caller supplied id is kept.
	req, err = c.NewRequest(context.Background(), http.MethodGet, "http://example.test/",
		WithHeader("X-Correlation-ID", "caller"))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if got := c.RequestID(req, nil); got != "caller" {
		t.Fatalf("RequestID=%q", got)
	}

	c, err = New(WithRequestID(RequestIDConfig{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, _ = c.NewRequest(context.Background(), http.MethodGet, "http://example.test/")
	if c.RequestID(req, nil) != "" || req.Header.Get("X-Request-ID") != "" {
		t.Fatalf("request ids should be disabled")
	}
}
