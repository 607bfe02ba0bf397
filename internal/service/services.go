package service

import (
	"github.com/deppfellow/product-inventory/internal/repository"
	"github.com/deppfellow/product-inventory/internal/server"
)

// Services groups the business services.
type Services struct {
	Products *ProductService
}

// NewService builds the services on top of the repositories.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Products: NewProductService(s, repos.Products),
	}, nil
}
