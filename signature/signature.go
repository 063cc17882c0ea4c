// Package signature computes BORDERS request signatures.
//
// The signable string is the plain concatenation of the HTTP method, the
// public key, the private key, the request path, every query parameter
// except "signature" as key+value in request order, and the body. The
// signature is the base64 encoding of its SHA-256 digest with trailing
// '+' and '=' characters removed.
//
// The remote service recomputes the signature independently, so the
// output must be bit-exact.
package signature

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"iter"
	"strings"
)

// Param is the query parameter name that carries the signature. It never
// takes part in the signable string.
const Param = "signature"

// DigestEncoding selects what gets base64 encoded.
type DigestEncoding string

const (
	// DigestRaw encodes the 32 raw digest bytes.
	DigestRaw DigestEncoding = "raw"

	// DigestHex encodes the lowercase hex form of the digest, as PHP's
	// hash('SHA256', ...) returns it.
	DigestHex DigestEncoding = "hex"
)

// Signer signs requests with a fixed key pair. The zero value is not
// usable; construct it with New.
type Signer struct {
	publicKey  string
	privateKey string
	encoding   DigestEncoding
}

type Option func(*Signer)

// WithDigestEncoding overrides the digest encoding. Unknown values fall
// back to DigestRaw.
func WithDigestEncoding(e DigestEncoding) Option {
	return func(s *Signer) { s.encoding = e }
}

// New returns a Signer for the key pair. Key validation belongs to the
// caller.
func New(publicKey, privateKey string, opts ...Option) *Signer {
	s := &Signer{
		publicKey:  publicKey,
		privateKey: privateKey,
		encoding:   DigestRaw,
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

func (s *Signer) PublicKey() string { return s.publicKey }

func (s *Signer) Encoding() DigestEncoding { return s.encoding }

// SignableString returns the exact string the signature covers. It
// contains the private key and must not be logged outside of local
// debugging.
func (s *Signer) SignableString(method, path string, params iter.Seq2[string, string], body string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteString(s.publicKey)
	b.WriteString(s.privateKey)
	b.WriteString(path)
	if params != nil {
		for k, v := range params {
			if k == Param {
				continue
			}
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	b.WriteString(body)
	return b.String()
}

// Sign returns the signature for the request. It is a pure function of its
// arguments and the key pair.
func (s *Signer) Sign(method, path string, params iter.Seq2[string, string], body string) string {
	sum := sha256.Sum256([]byte(s.SignableString(method, path, params, body)))

	var encoded string
	switch s.encoding {
	case DigestHex:
		encoded = base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
	default:
		encoded = base64.StdEncoding.EncodeToString(sum[:])
	}
	return strings.TrimRight(encoded, "+=")
}

// ParseDigestEncoding maps a config string to a DigestEncoding. Empty input
// yields DigestRaw.
func ParseDigestEncoding(s string) (DigestEncoding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DigestRaw):
		return DigestRaw, true
	case string(DigestHex):
		return DigestHex, true
	default:
		return "", false
	}
}
