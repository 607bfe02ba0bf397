// Package middleware holds the Echo middleware of the HTTP harness.
//
// These intercept requests to handle cross-cutting concerns such as
// request ids, request-scoped logging, New Relic tracing and panic
// recovery. The Lambda harness does not use them.
package middleware
