package config

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgc202/borders-go/borders"
	"github.com/lgc202/borders-go/httpx"
)

var (
	testPub  = strings.Repeat("a", 64)
	testPriv = strings.Repeat("b", 64)
)

func TestLoadSettings_Defaults(t *testing.T) {
	c, err := LoadSettings("")
	require.NoError(t, err)

	s := c.Get()
	assert.Equal(t, borders.DefaultHost, s.Host)
	assert.Equal(t, borders.DefaultTimeout, s.Timeout)
	assert.Equal(t, "raw", s.Digest)
	assert.False(t, s.Secure)
	assert.Equal(t, 1, s.RateLimit.Burst)
	assert.Equal(t, 10*time.Second, s.Transport.DialTimeout)
	assert.Equal(t, 90*time.Second, s.Transport.IdleConnTimeout)
	assert.NoError(t, s.Validate())
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "borders.yaml", `
public_key: `+testPub+`
secure: true
timeout: 30
rate_limit:
  rps: 5
  burst: 2
transport:
  proxy: http://proxy.internal:3128
`)
	t.Setenv("BORDERS_PRIVATE_KEY", testPriv)
	t.Setenv("BORDERS_TIMEOUT", "45")
	t.Setenv("BORDERS_TRANSPORT_DIAL_TIMEOUT", "3s")

	c, err := LoadSettings(p)
	require.NoError(t, err)

	s := c.Get()
	assert.Equal(t, testPub, s.PublicKey)
	assert.Equal(t, testPriv, s.PrivateKey)
	assert.True(t, s.Secure)
	assert.Equal(t, 45, s.Timeout)
	assert.Equal(t, 5.0, s.RateLimit.RPS)
	assert.Equal(t, 2, s.RateLimit.Burst)
	assert.Equal(t, 3*time.Second, s.Transport.DialTimeout)
	assert.Equal(t, "http://proxy.internal:3128", s.Transport.Proxy)
}

func TestLoadSettings_ExplicitZeroTimeout(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "borders.yaml", "timeout: 0\nmax_response_bytes: -1\n")

	c, err := LoadSettings(p)
	require.NoError(t, err)
	s := c.Get()
	assert.Equal(t, 0, s.Timeout)
	assert.Equal(t, int64(-1), s.MaxResponseBytes)
	assert.Equal(t, borders.DefaultHost, s.Host)

	client, err := borders.New(testPub, testPriv)
	require.NoError(t, err)
	s.Apply(client)
	assert.Equal(t, 0, client.Timeout())

	t.Setenv("BORDERS_TIMEOUT", "0")
	c, err = LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Get().Timeout)
}

func TestSettings_MaxResponseBytes(t *testing.T) {
	body := `{"response":"` + strings.Repeat("x", 64) + `"}`
	rt := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})
	s := Settings{PublicKey: testPub, PrivateKey: testPriv, Digest: "raw", MaxResponseBytes: 16}

	c, err := s.NewClient(borders.WithTransport(rt))
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/big", nil)
	assert.True(t, errors.Is(err, httpx.ErrBodyTooLarge))
}

func TestSettings_Validate(t *testing.T) {
	base := Settings{Digest: "raw"}
	require.NoError(t, base.Validate())

	bad := base
	bad.Digest = "md5"
	assert.Error(t, bad.Validate())

	bad = base
	bad.RateLimit.RPS = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.Transport.Proxy = "proxy-without-scheme"
	assert.Error(t, bad.Validate())

	_, err := bad.ClientOptions()
	assert.Error(t, err)
}

func TestSettings_NewClient(t *testing.T) {
	s := Settings{
		PublicKey:  testPub,
		PrivateKey: testPriv,
		Secure:     true,
		Timeout:    30,
		Host:       "api.example.test",
		Digest:     "hex",
		RateLimit:  RateLimit{RPS: 100, Burst: 1},
	}

	var seen *http.Request
	c, err := s.NewClient(borders.WithTransport(httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       http.NoBody,
			Request:    r,
		}, nil
	})))
	require.NoError(t, err)
	assert.True(t, c.IsSecure())
	assert.Equal(t, 30, c.Timeout())
	assert.Equal(t, "api.example.test", c.Host())
	assert.Equal(t, "hex", string(c.Signer().Encoding()))

	// The empty body is not a valid envelope, but the request went out.
	_, err = c.Get(context.Background(), "/ping", nil)
	assert.True(t, errors.Is(err, borders.ErrInvalidResponse))
	require.NotNil(t, seen)
	assert.Equal(t, "https://api.example.test/ping", seen.URL.Scheme+"://"+seen.URL.Host+seen.URL.Path)
}

func TestSettings_NewClientBadKeys(t *testing.T) {
	s := Settings{PublicKey: "short", PrivateKey: testPriv, Digest: "raw"}
	_, err := s.NewClient()
	assert.True(t, errors.Is(err, borders.ErrInvalidCredentials))
}

func TestSettings_Apply(t *testing.T) {
	c, err := borders.New(testPub, testPriv)
	require.NoError(t, err)

	Settings{Secure: true, Timeout: 5}.Apply(c)
	assert.True(t, c.IsSecure())
	assert.Equal(t, 5, c.Timeout())
}

func TestSettings_Redacted(t *testing.T) {
	s := Settings{PublicKey: testPub, PrivateKey: testPriv}
	r := s.Redacted()
	assert.Equal(t, "***", r.PrivateKey)
	assert.Equal(t, testPub, r.PublicKey)
	assert.Equal(t, testPriv, s.PrivateKey)
}
