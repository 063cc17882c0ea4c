package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeJSON decodes exactly one JSON value from data into dst. Numbers are
// kept as json.Number when dst holds interface values. Trailing
// non-whitespace content is an error.
func DecodeJSON(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there's no extra non-whitespace payload.
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if extra != nil {
		return errors.New("unexpected extra JSON value in response body")
	}
	return nil
}

// JSON decodes the response body with DecodeJSON.
func (r *Response) JSON(dst any) error {
	if r == nil {
		return errors.New("nil response")
	}
	return DecodeJSON(r.Body, dst)
}
