// Package repository handles all interactions with the item store.
//
// ProductStore is the contract the service layer depends on. Each driver
// (DynamoDB, PostgreSQL, Redis, in-memory) implements it on top of its
// own client and keeps the store-specific details here.
package repository

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/deppfellow/product-inventory/internal/model"
)

// ErrNotFound is returned by Get and Update when no item has the id.
var ErrNotFound = errors.New("product not found")

// Page is one slice of a collection scan. Next is the opaque token for
// the following page, empty when the scan is complete.
type Page struct {
	Items []model.Item
	Next  string
}

// ProductStore is a keyed collection of product items.
type ProductStore interface {
	// Get returns the item with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Item, error)

	// Put writes the item unconditionally, replacing any previous item
	// with the same id.
	Put(ctx context.Context, item model.Item) error

	// Update sets a single attribute on an existing item and returns the
	// updated attributes. ErrNotFound when the item does not exist.
	Update(ctx context.Context, id, key string, value any) (model.Item, error)

	// Delete removes the item and returns its previous value, nil when
	// nothing was stored under the id.
	Delete(ctx context.Context, id string) (model.Item, error)

	// Scan returns the page of items that follows token ("" for the first
	// page).
	Scan(ctx context.Context, token string) (Page, error)
}

func encodeToken(raw string) string {
	if raw == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.Wrap(err, "invalid continuation token")
	}
	return string(raw), nil
}
