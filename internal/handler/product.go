package handler

import (
	"context"

	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/server"
	"github.com/deppfellow/product-inventory/internal/service"
)

const (
	operationSave   = "SAVE"
	operationUpdate = "UPDATE"
	operationDelete = "DELETE"
	messageSuccess  = "SUCCESS"
)

// ProductHandler exposes the product operations.
type ProductHandler struct {
	Handler
	products *service.ProductService
}

func NewProductHandler(s *server.Server, products *service.ProductService) *ProductHandler {
	return &ProductHandler{
		Handler:  NewHandler(s),
		products: products,
	}
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (model.Item, error) {
	return h.products.GetProduct(ctx, req.ProductID)
}

func (h *ProductHandler) ListProducts(ctx context.Context, _ *EmptyRequest) (map[string]any, error) {
	items, err := h.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"products": items}, nil
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *CreateProductRequest) (map[string]any, error) {
	item, err := h.products.SaveProduct(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Operation": operationSave,
		"Message":   messageSuccess,
		"Item":      item,
	}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (map[string]any, error) {
	updated, err := h.products.ModifyProduct(ctx, req.ProductID, req.UpdateKey, req.Value())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Operation":         operationUpdate,
		"Message":           messageSuccess,
		"UpdatedAttributes": updated,
	}, nil
}

// DeleteProduct succeeds whether or not the product existed; deletedItem
// is only reported when something was removed.
func (h *ProductHandler) DeleteProduct(ctx context.Context, req *DeleteProductRequest) (map[string]any, error) {
	previous, err := h.products.DeleteProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"Operation": operationDelete,
		"Message":   messageSuccess,
	}
	if previous != nil {
		body["deletedItem"] = previous
	}
	return body, nil
}
