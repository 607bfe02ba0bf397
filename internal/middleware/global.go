package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/envelope"
	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/server"
	"github.com/deppfellow/product-inventory/internal/storeerr"
)

// GlobalMiddlewares groups the middleware applied to every request and
// the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// RequestLogger writes one "API" line per request, at a level chosen by
// the final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The error handler has not written the response yet when an
			// error reaches this point, so derive the status from it.
			// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				var httpErr *errs.HTTPError
				var echoErr *echo.HTTPError

				if errors.As(v.Error, &httpErr) {
					statusCode = httpErr.Status
				} else if errors.As(v.Error, &echoErr) {
					statusCode = echoErr.Code
				} else {
					statusCode = http.StatusInternalServerError
				}
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns a panic into an error handled by GlobalErrorHandler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisablePrintStack: true,
	})
}

// GlobalErrorHandler is the last stop for errors returned through Echo.
// Whatever the error, the client receives a regular envelope with the
// fixed headers.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	var resp envelope.Response
	var echoErr *echo.HTTPError

	switch {
	// Unknown methods land here as 405; both are unmapped routes.
	case errors.As(err, &echoErr) &&
		(echoErr.Code == http.StatusNotFound || echoErr.Code == http.StatusMethodNotAllowed):
		resp = envelope.NotFound()

	case errors.As(err, &echoErr):
		message := http.StatusText(echoErr.Code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
		resp = envelope.Message(echoErr.Code, message)

	default:
		var httpErr *errs.HTTPError
		if !errors.As(storeerr.HandleError(err), &httpErr) {
			httpErr = errs.NewInternalServerError()
		}
		resp = envelope.Build(httpErr.Status, httpErr.Body())
	}

	logger := GetLogger(c)
	event := logger.Warn()
	if resp.StatusCode >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}
	event.
		Err(err).
		Int("status", resp.StatusCode).
		Msg("request failed outside the handler")

	if !c.Response().Committed {
		if writeErr := WriteEnvelope(c, resp); writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

// WriteEnvelope writes resp as the HTTP response: its status code, its
// headers and its body when it has one.
func WriteEnvelope(c echo.Context, resp envelope.Response) error {
	header := c.Response().Header()
	for name, value := range resp.Headers {
		header.Set(name, value)
	}

	if resp.Body == nil {
		return c.NoContent(resp.StatusCode)
	}

	return c.Blob(resp.StatusCode, resp.Headers[envelope.HeaderContentType], []byte(*resp.Body))
}
