package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/repository"
)

// pagedStore replays fixed pages, keyed by the token that requests them.
type pagedStore struct {
	repository.ProductStore
	pages map[string]repository.Page
	calls int
}

func (p *pagedStore) Scan(_ context.Context, token string) (repository.Page, error) {
	p.calls++
	page, ok := p.pages[token]
	if !ok {
		return repository.Page{}, fmt.Errorf("unexpected token %q", token)
	}
	return page, nil
}

type failingStore struct {
	repository.ProductStore
	err error
}

func (f failingStore) Get(context.Context, string) (model.Item, error) { return nil, f.err }

func (f failingStore) Update(context.Context, string, string, any) (model.Item, error) {
	return nil, f.err
}

func items(ids ...string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{"productId": id})
	}
	return out
}

func ids(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID())
	}
	return out
}

func requireHTTPError(t *testing.T, err error, status int) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %v", err)
	assert.Equal(t, status, httpErr.Status)
	return httpErr
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(10)
	svc := NewProductService(nil, store)

	require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "price": json.Number("3.5")}))

	got, err := svc.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.Item{"productId": "p-1", "price": json.Number("3.5")}, got)

	_, err = svc.GetProduct(ctx, "p-404")
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "productId: p-404 is not found", httpErr.Message)
}

func TestProductService_GetProductStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewProductService(nil, failingStore{err: boom})

	_, err := svc.GetProduct(context.Background(), "p-1")
	assert.ErrorIs(t, err, boom)
}

func TestProductService_ListProducts(t *testing.T) {
	tests := []struct {
		name  string
		pages map[string]repository.Page
		want  []string
		calls int
	}{
		{
			name:  "empty collection",
			pages: map[string]repository.Page{"": {}},
			want:  []string{},
			calls: 1,
		},
		{
			name:  "single page",
			pages: map[string]repository.Page{"": {Items: items("a", "b")}},
			want:  []string{"a", "b"},
			calls: 1,
		},
		{
			name: "several pages in store order",
			pages: map[string]repository.Page{
				"":   {Items: items("c", "a"), Next: "t1"},
				"t1": {Items: items("b"), Next: "t2"},
				"t2": {Items: items("d")},
			},
			want:  []string{"c", "a", "b", "d"},
			calls: 3,
		},
		{
			name: "empty page in the middle",
			pages: map[string]repository.Page{
				"":   {Items: items("a"), Next: "t1"},
				"t1": {Next: "t2"},
				"t2": {Items: items("b")},
			},
			want:  []string{"a", "b"},
			calls: 3,
		},
		{
			name: "duplicates across pages are dropped",
			pages: map[string]repository.Page{
				"":   {Items: items("a", "b"), Next: "t1"},
				"t1": {Items: items("b", "c")},
			},
			want:  []string{"a", "b", "c"},
			calls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &pagedStore{pages: tt.pages}
			svc := NewProductService(nil, store)

			got, err := svc.ListProducts(context.Background())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, tt.calls, store.calls)
		})
	}
}

func TestProductService_ListProductsRepeatedToken(t *testing.T) {
	store := &pagedStore{pages: map[string]repository.Page{
		"":   {Items: items("a"), Next: "t1"},
		"t1": {Items: items("b"), Next: "t1"},
	}}
	svc := NewProductService(nil, store)

	_, err := svc.ListProducts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "continuation token twice")
}

func TestProductService_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(10)
	svc := NewProductService(nil, store)

	saved, err := svc.SaveProduct(ctx, model.Item{"productId": "p-1", "name": "first", "color": "red"})
	require.NoError(t, err)
	assert.Equal(t, "first", saved["name"])

	_, err = svc.SaveProduct(ctx, model.Item{"productId": "p-1", "name": "second"})
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.Item{"productId": "p-1", "name": "second"}, got)
}

func TestProductService_ModifyProduct(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(10)
	svc := NewProductService(nil, store)

	require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "name": "Widget", "stock": json.Number("3")}))

	updated, err := svc.ModifyProduct(ctx, "p-1", "stock", json.Number("4"))
	require.NoError(t, err)
	assert.Equal(t, model.Item{"stock": json.Number("4")}, updated)

	got, err := svc.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.Item{"productId": "p-1", "name": "Widget", "stock": json.Number("4")}, got)

	_, err = svc.ModifyProduct(ctx, "ghost", "stock", json.Number("1"))
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "productId: ghost is not found", httpErr.Message)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(10)
	svc := NewProductService(nil, store)

	require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1"}))

	prev, err := svc.DeleteProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.Item{"productId": "p-1"}, prev)

	_, err = svc.GetProduct(ctx, "p-1")
	requireHTTPError(t, err, http.StatusNotFound)

	prev, err = svc.DeleteProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, prev)
}
