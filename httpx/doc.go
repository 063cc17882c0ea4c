// Package httpx is the transport layer used by the BORDERS client:
// - request construction from a fully assembled URL (query kept verbatim)
// - per-request deadline, with the earlier context deadline winning
// - default headers, User-Agent and request id injection
// - error type carrying method, url, request id and the transport cause
// - hook points and RoundTripper middleware for logging/metrics/rate limiting
//
// It performs no retries and no logging of its own.
package httpx
