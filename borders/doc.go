// Package borders is a client for the BORDERS API.
//
// Every call goes through the same pipeline: build, sign, transmit, unwrap.
//
//   - The path gets a leading '/' when it lacks one.
//   - public_key and expires (now + timeout) are added to the query unless
//     the caller already set them, and any caller supplied signature is
//     dropped.
//   - A body must be a JSON object. It is wrapped as {"request": body}
//     unless it already has a top-level "request" key, and is sent pretty
//     printed.
//   - The request is signed (see package signature) and the signature is
//     appended as the last query parameter.
//   - The response must be a JSON object with a "response" member; its value
//     is returned.
//
// There are no retries. Any failure aborts the call and is reported as an
// *Error whose Kind is one of the Err* sentinels.
//
// File uploads (PUT) are not implemented; Put always returns
// ErrUploadNotSupported without touching the network.
package borders
