package borders

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lgc202/borders-go/signature"
)

const (
	paramPublicKey = "public_key"
	paramExpires   = "expires"

	// bodyWrapKey is the top-level member request bodies are wrapped in.
	bodyWrapKey = "request"

	bodyIndent = "    "
)

var errNotObject = errors.New("body must encode to a JSON object")

// signedRequest is everything needed to put one call on the wire.
type signedRequest struct {
	method  string
	path    string
	params  *Params
	body    []byte
	url     string
	timeout time.Duration
}

// prepare builds and signs a request. The caller's params are not modified.
func (c *Client) prepare(method, path string, body any, params *Params) (*signedRequest, error) {
	// Read the mutable settings once so expires and the deadline agree.
	secure := c.secure.Load()
	timeout := c.timeout.Load()

	path = normalizePath(path)

	q := params.Clone()
	if !q.Has(paramPublicKey) {
		q.Set(paramPublicKey, c.signer.PublicKey())
	}
	if !q.Has(paramExpires) {
		q.Set(paramExpires, strconv.FormatInt(c.now().Unix()+timeout, 10))
	}
	q.Del(signature.Param)

	var bodyBytes []byte
	if body != nil {
		b, err := encodeBody(body)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidBody, Method: method, Cause: err}
		}
		bodyBytes = b
	}

	q.Set(signature.Param, c.signer.Sign(method, path, q.All(), string(bodyBytes)))

	scheme := "http"
	if secure {
		scheme = "https"
	}

	return &signedRequest{
		method:  method,
		path:    path,
		params:  q,
		body:    bodyBytes,
		url:     scheme + "://" + c.host + path + "?" + q.Encode(),
		timeout: time.Duration(timeout) * time.Second,
	}, nil
}

// Signed is a request as it would be sent, without sending it.
type Signed struct {
	Method string
	Path   string
	URL    string
	Params *Params
	Body   []byte
}

// Sign builds and signs a request without performing I/O. It applies the
// same defaults and encoding as Do, so the result can be compared with what
// a verifier computed.
func (c *Client) Sign(method, path string, body any, params *Params) (*Signed, error) {
	sr, err := c.prepare(strings.ToUpper(method), path, body, params)
	if err != nil {
		return nil, err
	}
	return &Signed{
		Method: sr.method,
		Path:   sr.path,
		URL:    sr.url,
		Params: sr.params.Clone(),
		Body:   append([]byte(nil), sr.body...),
	}, nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// encodeBody serializes body as an indented JSON object, wrapping it in
// {"request": ...} unless it already has that member. Object keys come out
// sorted, so equal inputs always give equal bytes. A body that encodes to
// null (a nil map or pointer) yields no bytes.
func encodeBody(body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	t := bytes.TrimSpace(raw)
	if bytes.Equal(t, []byte("null")) {
		return nil, nil
	}
	if len(t) == 0 || t[0] != '{' {
		return nil, errNotObject
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if _, ok := obj[bodyWrapKey]; !ok {
		obj = map[string]json.RawMessage{bodyWrapKey: raw}
	}
	return json.MarshalIndent(obj, "", bodyIndent)
}
