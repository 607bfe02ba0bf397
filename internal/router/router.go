// Package router maps (method, path) pairs to operations and adapts the
// two harnesses to them: the Echo HTTP server and the API Gateway proxy
// events of AWS Lambda.
package router

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/deppfellow/product-inventory/internal/middleware"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/server"
)

// MaxBodySize bounds request bodies accepted by the HTTP harness.
const MaxBodySize = "1M"

// NewRouter builds the Echo instance of the HTTP harness. Every path and
// method reaches the dispatcher, which owns the route table, so unmapped
// pairs get the same 404 envelope under both harnesses.
func NewRouter(s *server.Server, d *Dispatcher) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		echoMiddleware.BodyLimit(MaxBodySize),
	)

	router.Any("/*", dispatchHTTP(d))

	return router
}

func dispatchHTTP(d *Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := requestFromHTTP(c.Request())
		if err != nil {
			return err
		}

		resp := d.Dispatch(c.Request().Context(), req)
		return middleware.WriteEnvelope(c, resp)
	}
}

// requestFromHTTP keeps the first value of each query parameter, as API
// Gateway does for queryStringParameters. An absent query or body stays
// nil.
func requestFromHTTP(r *http.Request) (*model.Request, error) {
	req := &model.Request{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
	}

	if query := r.URL.Query(); len(query) > 0 {
		req.QueryStringParameters = make(map[string]string, len(query))
		for key, values := range query {
			if len(values) > 0 {
				req.QueryStringParameters[key] = values[0]
			}
		}
	}

	if r.Body != nil {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			body := string(raw)
			req.Body = &body
		}
	}

	return req, nil
}
