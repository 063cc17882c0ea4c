package borders

import (
	"encoding/json"
	"errors"

	"github.com/lgc202/borders-go/httpx"
)

// envelopeKey is the member every BORDERS response wraps its payload in.
const envelopeKey = "response"

var errEmptyResponse = errors.New("response decodes to an empty value")

// unwrap validates the envelope and returns the decoded payload. The
// returned error is ErrInvalidResponse or ErrMalformedEnvelope; the caller
// fills in request details.
func unwrap(body []byte) (any, *Error) {
	var v any
	if err := httpx.DecodeJSON(body, &v); err != nil {
		return nil, &Error{Kind: ErrInvalidResponse, Cause: err}
	}
	if isEmpty(v) {
		return nil, &Error{Kind: ErrInvalidResponse, Cause: errEmptyResponse}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &Error{Kind: ErrMalformedEnvelope}
	}
	payload, ok := obj[envelopeKey]
	if !ok {
		return nil, &Error{Kind: ErrMalformedEnvelope}
	}
	return payload, nil
}

// isEmpty follows PHP truthiness for decoded JSON: null, false, 0, "",
// "0" and [] are empty. Objects are never empty, even {}.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case string:
		return t == "" || t == "0"
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// decodePayload decodes the envelope member straight into dst.
func decodePayload(body []byte, dst any) error {
	var env map[string]json.RawMessage
	if err := httpx.DecodeJSON(body, &env); err != nil {
		return err
	}
	return json.Unmarshal(env[envelopeKey], dst)
}
