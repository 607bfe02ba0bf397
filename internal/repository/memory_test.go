package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/product-inventory/internal/model"
)

func TestMemoryStore_ScanOrderAndTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	for _, id := range []string{"c", "a", "e", "b", "d"} {
		require.NoError(t, store.Put(ctx, model.Item{"productId": id}))
	}
	assert.Equal(t, 5, store.Len())

	first, err := store.Scan(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{"productId": "a"}, {"productId": "b"}}, first.Items)
	require.NotEmpty(t, first.Next)

	second, err := store.Scan(ctx, first.Next)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{"productId": "c"}, {"productId": "d"}}, second.Items)

	third, err := store.Scan(ctx, second.Next)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{"productId": "e"}}, third.Items)
	assert.Empty(t, third.Next)
}

func TestMemoryStore_ExactPageHasNoNext(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	require.NoError(t, store.Put(ctx, model.Item{"productId": "a"}))
	require.NoError(t, store.Put(ctx, model.Item{"productId": "b"}))

	page, err := store.Scan(ctx, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.Next)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)

	item := model.Item{"productId": "p-1", "meta": map[string]any{"color": "red"}}
	require.NoError(t, store.Put(ctx, item))
	item["meta"].(map[string]any)["color"] = "blue"

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "red", got["meta"].(map[string]any)["color"])

	got["meta"].(map[string]any)["color"] = "green"
	again, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "red", again["meta"].(map[string]any)["color"])
}
