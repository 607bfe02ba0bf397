package handler

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/envelope"
	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/server"
	"github.com/deppfellow/product-inventory/internal/storeerr"
	"github.com/deppfellow/product-inventory/internal/validation"
)

// Handler is the base handler type that holds shared application
// dependencies. Concrete handlers embed it.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Operation handles one request and always produces an envelope. It is
// what the router dispatches to, whichever harness received the request.
type Operation func(ctx context.Context, r *model.Request) envelope.Response

// HandlerFunc is a typed endpoint: it receives a bound and validated
// payload and returns the response body or an error.
//
// Req is a pointer type so Bind can fill it.
type HandlerFunc[Req validation.Payload, Res any] func(ctx context.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint whose success has no body.
type HandlerFuncNoContent[Req validation.Payload] func(ctx context.Context, req Req) error

// handleRequest is the execution pipeline shared by every operation.
//
// It centralizes:
//   - request binding and validation
//   - structured logging with the request-scoped logger
//   - New Relic attributes and error reporting
//   - timing (validation, handler, total) and the slow operation warning
//   - mapping every error to an envelope
func handleRequest[Req validation.Payload](
	ctx context.Context,
	h Handler,
	name string,
	r *model.Request,
	req Req,
	handler func(ctx context.Context, req Req) (any, error),
	status int,
) envelope.Response {
	start := time.Now()

	txn := newrelic.FromContext(ctx)
	if txn != nil {
		txn.AddAttribute("handler.name", name)
	}

	logger := zerolog.Ctx(ctx).With().
		Str("operation", name).
		Str("method", r.HTTPMethod).
		Str("path", r.Path).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("handling request")

	// ---------------- Validation phase ---------------------------------------
	validationStart := time.Now()

	if err := validation.BindAndValidate(r, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}

		return h.errorResponse(ctx, err)
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	logger.Debug().
		Dur("validation_duration", validationDuration).
		Msg("request validation successful")

	// ---------------- Handler execution phase --------------------------------
	handlerStart := time.Now()
	result, err := handler(ctx, req)
	handlerDuration := time.Since(handlerStart)
	totalDuration := time.Since(start)

	h.warnIfSlow(logger, totalDuration)

	if err != nil {
		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
			txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		}

		logger.Debug().
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", totalDuration).
			Msg("handler execution failed")

		return h.errorResponse(ctx, err)
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
	}

	logger.Info().
		Int("status", status).
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed successfully")

	return envelope.Build(status, result)
}

// errorResponse maps err to an envelope. Store errors are classified by
// storeerr; the client only sees the resulting message, the log keeps the
// original error with its stack.
func (h Handler) errorResponse(ctx context.Context, err error) envelope.Response {
	logger := zerolog.Ctx(ctx)

	var httpErr *errs.HTTPError
	if !errors.As(storeerr.HandleError(err), &httpErr) {
		httpErr = errs.NewInternalServerError()
	}

	var event *zerolog.Event
	switch {
	case httpErr.Status >= 500:
		event = logger.Error().Stack()
	default:
		event = logger.Warn()
	}

	event.
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	return envelope.Build(httpErr.Status, httpErr.Body())
}

func (h Handler) warnIfSlow(logger zerolog.Logger, elapsed time.Duration) {
	if h.server == nil || h.server.Config == nil || h.server.Config.Observability == nil {
		return
	}

	threshold := h.server.Config.Observability.Logging.SlowOperationThreshold
	if threshold > 0 && elapsed > threshold {
		logger.Warn().
			Dur("total_duration", elapsed).
			Dur("threshold", threshold).
			Msg("slow operation")
	}
}

// Handle wraps a typed handler into an Operation. newReq returns a fresh
// payload for every call so concurrent requests never share one.
//
//	handler.Handle(h.Handler, "get_product", h.GetProduct, http.StatusOK, NewGetProductRequest)
func Handle[Req validation.Payload, Res any](
	h Handler,
	name string,
	handler HandlerFunc[Req, Res],
	status int,
	newReq func() Req,
) Operation {
	return func(ctx context.Context, r *model.Request) envelope.Response {
		return handleRequest(ctx, h, name, r, newReq(), func(ctx context.Context, req Req) (any, error) {
			return handler(ctx, req)
		}, status)
	}
}

// HandleNoContent wraps a handler whose success response has no body.
func HandleNoContent[Req validation.Payload](
	h Handler,
	name string,
	handler HandlerFuncNoContent[Req],
	status int,
	newReq func() Req,
) Operation {
	return func(ctx context.Context, r *model.Request) envelope.Response {
		return handleRequest(ctx, h, name, r, newReq(), func(ctx context.Context, req Req) (any, error) {
			return nil, handler(ctx, req)
		}, status)
	}
}
