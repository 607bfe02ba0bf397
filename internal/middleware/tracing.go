package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/product-inventory/internal/server"
)

// TracingMiddleware owns the New Relic Echo middleware.
//
// It has two layers:
//  1. NewRelicMiddleware() starts the transaction for each request
//  2. EnhanceTracing() adds custom attributes and notices errors
//
// The handler pipeline adds its own attributes (validation and handler
// timings) to the same transaction through newrelic.FromContext.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request and stores it in
// the request context. It is a pass-through when New Relic is disabled.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing adds request attributes to the transaction and notices
// errors that escape the handler. It must run after NewRelicMiddleware.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// txn is nil when New Relic is disabled or when the middleware
			// order is wrong; tracing is optional, so just continue.
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			// NOTE: user agents are high cardinality. They are fine as
			// transaction attributes but should not become metric names.
			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			txn.AddAttribute("store.driver", tm.server.Config.Store.Driver)

			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}

			// Operations answer with an envelope and return nil, so only
			// panics and Echo level failures (body too large, unknown
			// method) reach this branch. nrpkgerrors keeps the stack.
			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			// Captured after the handler ran, once the status is known.
			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}
