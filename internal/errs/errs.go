// Package errs defines the error type every layer returns when a request
// has to end with something other than success.
//
// An *HTTPError carries the status and the client-facing message. The
// dispatcher turns it into a response envelope; anything that is not an
// *HTTPError is classified by storeerr first and never reaches the client
// verbatim.
package errs
