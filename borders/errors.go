package borders

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidCredentials is returned by New when a key is not exactly
	// KeyLength characters long.
	ErrInvalidCredentials = errors.New("borders: API keys appear invalid")

	// ErrInvalidBody is returned when a body does not encode to a JSON object.
	ErrInvalidBody = errors.New("borders: body should be a JSON object")

	// ErrTransport covers connection failures, timeouts and cancellation.
	ErrTransport = errors.New("borders: transport failure")

	// ErrInvalidResponse is returned when the response body is not JSON or
	// decodes to an empty value.
	ErrInvalidResponse = errors.New("borders: unable to decode response data")

	// ErrMalformedEnvelope is returned when the response lacks the
	// "response" member.
	ErrMalformedEnvelope = errors.New("borders: improper response data")

	// ErrUploadNotSupported is returned by Put. Uploads are reserved by the
	// API but not implemented by this client.
	ErrUploadNotSupported = errors.New("borders: file upload is not supported")

	// ErrUnsupportedMethod is returned by Do for verbs other than GET, POST
	// and DELETE.
	ErrUnsupportedMethod = errors.New("borders: unsupported method")
)

// Error describes a failed call.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	Method string
	URL    string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	RequestID string

	// Raw is a truncated copy of the response body for response errors.
	Raw []byte

	Cause error
}

// maxRawBody bounds Error.Raw.
const maxRawBody = 4 << 10

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("borders: request failed")
	}
	if e.Method != "" || e.URL != "" {
		b.WriteString(" (")
		b.WriteString(strings.TrimSpace(e.Method + " " + e.URL))
		b.WriteString(")")
	}
	if e.StatusCode != 0 {
		b.WriteString(fmt.Sprintf(" http %d", e.StatusCode))
	}
	if e.RequestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(e.RequestID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func truncate(b []byte) []byte {
	if len(b) > maxRawBody {
		b = b[:maxRawBody]
	}
	return append([]byte(nil), b...)
}
