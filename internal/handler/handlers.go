package handler

import (
	"github.com/deppfellow/product-inventory/internal/server"
	"github.com/deppfellow/product-inventory/internal/service"
)

// Handlers groups every handler so router setup receives one value.
type Handlers struct {
	Health  *HealthHandler
	Product *ProductHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Product: NewProductHandler(s, services.Products),
	}
}
