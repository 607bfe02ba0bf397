package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/repository"
	"github.com/deppfellow/product-inventory/internal/server"
)

// maxScanPages stops a full listing whose continuation tokens never end.
const maxScanPages = 100_000

var productNotFoundCode = "PRODUCT_NOT_FOUND"

// ProductService implements the product operations.
type ProductService struct {
	server   *server.Server
	products repository.ProductStore
}

func NewProductService(s *server.Server, products repository.ProductStore) *ProductService {
	return &ProductService{
		server:   s,
		products: products,
	}
}

func notFound(id string) error {
	return errs.NewNotFoundError(fmt.Sprintf("productId: %s is not found", id), &productNotFoundCode)
}

// GetProduct returns the stored item.
func (ps *ProductService) GetProduct(ctx context.Context, id string) (model.Item, error) {
	item, err := ps.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return item, nil
}

// ListProducts reads the whole collection, following continuation tokens
// until the store reports no more pages. Items are returned in store
// order; an id seen on an earlier page is skipped.
func (ps *ProductService) ListProducts(ctx context.Context) ([]model.Item, error) {
	logger := zerolog.Ctx(ctx)

	items := make([]model.Item, 0)
	seenIDs := make(map[string]struct{})
	seenTokens := make(map[string]struct{})

	token := ""
	for pages := 1; ; pages++ {
		if pages > maxScanPages {
			return nil, errors.Errorf("product scan exceeded %d pages", maxScanPages)
		}

		page, err := ps.products.Scan(ctx, token)
		if err != nil {
			return nil, errors.Wrapf(err, "scan page %d", pages)
		}

		for _, item := range page.Items {
			if _, dup := seenIDs[item.ID()]; dup {
				continue
			}
			seenIDs[item.ID()] = struct{}{}
			items = append(items, item)
		}

		logger.Debug().
			Int("page", pages).
			Int("page_items", len(page.Items)).
			Bool("more", page.Next != "").
			Msg("scanned product page")

		if page.Next == "" {
			break
		}

		if _, repeated := seenTokens[page.Next]; repeated {
			return nil, errors.Errorf("product scan returned continuation token twice on page %d", pages)
		}
		seenTokens[page.Next] = struct{}{}
		token = page.Next
	}

	return items, nil
}

// SaveProduct upserts the item. An existing item with the same id is
// replaced, not merged.
func (ps *ProductService) SaveProduct(ctx context.Context, item model.Item) (model.Item, error) {
	if err := ps.products.Put(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ModifyProduct sets one attribute of an existing product and returns the
// attributes the store reports as updated.
func (ps *ProductService) ModifyProduct(ctx context.Context, id, key string, value any) (model.Item, error) {
	updated, err := ps.products.Update(ctx, id, key, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteProduct removes the product. The previous item is nil when
// nothing was stored under id, which is not an error.
func (ps *ProductService) DeleteProduct(ctx context.Context, id string) (model.Item, error) {
	return ps.products.Delete(ctx, id)
}
