// Package handler is the first layer after the router.
//
// It binds and validates request payloads, calls the service layer and
// turns results or errors into response envelopes. It knows nothing about
// the harness (HTTP server or Lambda) that delivered the request.
package handler
