package router

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/envelope"
	"github.com/deppfellow/product-inventory/internal/handler"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/server"
)

type route struct {
	method string
	path   string
}

// Dispatcher selects the operation for a request by exact (method, path)
// match. Paths are not normalized: "/product/" is not "/product".
type Dispatcher struct {
	logger *zerolog.Logger
	routes map[route]handler.Operation
}

// NewDispatcher registers the product routes.
func NewDispatcher(s *server.Server, h *handler.Handlers) *Dispatcher {
	d := &Dispatcher{
		logger: s.Logger,
		routes: make(map[route]handler.Operation),
	}

	d.register(http.MethodGet, "/health",
		handler.HandleNoContent(h.Health.Handler, "health_check", h.Health.CheckHealth, http.StatusOK, handler.NewEmptyRequest))

	d.register(http.MethodGet, "/product",
		handler.Handle(h.Product.Handler, "get_product", h.Product.GetProduct, http.StatusOK, handler.NewGetProductRequest))
	d.register(http.MethodGet, "/products",
		handler.Handle(h.Product.Handler, "list_products", h.Product.ListProducts, http.StatusOK, handler.NewEmptyRequest))
	d.register(http.MethodPost, "/product",
		handler.Handle(h.Product.Handler, "create_product", h.Product.CreateProduct, http.StatusOK, handler.NewCreateProductRequest))
	d.register(http.MethodPatch, "/product",
		handler.Handle(h.Product.Handler, "update_product", h.Product.UpdateProduct, http.StatusOK, handler.NewUpdateProductRequest))
	d.register(http.MethodDelete, "/product",
		handler.Handle(h.Product.Handler, "delete_product", h.Product.DeleteProduct, http.StatusOK, handler.NewDeleteProductRequest))

	return d
}

func (d *Dispatcher) register(method, path string, op handler.Operation) {
	d.routes[route{method: method, path: path}] = op
}

// Dispatch runs the operation mapped to r, or returns the 404 envelope.
// The request logger in ctx is used when present, the application logger
// otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, r *model.Request) envelope.Response {
	if zerolog.Ctx(ctx).GetLevel() == zerolog.Disabled && d.logger != nil {
		ctx = d.logger.WithContext(ctx)
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("http_method", r.HTTPMethod).
		Str("path", r.Path).
		Interface("query", r.QueryStringParameters).
		Bool("has_body", r.HasBody()).
		Msg("received request")

	op, ok := d.routes[route{method: r.HTTPMethod, path: r.Path}]
	if !ok {
		logger.Info().
			Str("http_method", r.HTTPMethod).
			Str("path", r.Path).
			Msg("no route for request")
		return envelope.NotFound()
	}

	return op(ctx, r)
}
