package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/product-inventory/internal/model"
)

// storeFactory returns a fresh, empty store with the given page size.
type storeFactory func(t *testing.T, pageSize int) ProductStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, pageSize int) ProductStore {
			return NewMemoryStore(pageSize)
		},
		"dynamodb": func(t *testing.T, pageSize int) ProductStore {
			return NewDynamoStore(newFakeDynamo(), "product-inventory", pageSize)
		},
		"redis": func(t *testing.T, pageSize int) ProductStore {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisStore(client, "product-inventory", pageSize)
		},
	}
}

func scanAll(t *testing.T, store ProductStore) []model.Item {
	t.Helper()

	seen := map[string]bool{}
	var items []model.Item
	token := ""
	for attempt := 0; attempt < 1000; attempt++ {
		page, err := store.Scan(context.Background(), token)
		require.NoError(t, err)
		for _, item := range page.Items {
			if !seen[item.ID()] {
				seen[item.ID()] = true
				items = append(items, item)
			}
		}
		if page.Next == "" {
			return items
		}
		token = page.Next
	}
	t.Fatal("scan did not terminate")
	return nil
}

func TestProductStore_Contract(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("put then get returns the item", func(t *testing.T) {
				store := newStore(t, 10)
				item := model.Item{
					"productId": "p-1",
					"name":      "Widget",
					"price":     json.Number("12.5"),
					"meta":      map[string]any{"color": "red"},
				}
				require.NoError(t, store.Put(ctx, item))

				got, err := store.Get(ctx, "p-1")
				require.NoError(t, err)
				assert.Equal(t, item, got)
			})

			t.Run("put overwrites without merging", func(t *testing.T) {
				store := newStore(t, 10)
				require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "name": "old", "stale": true}))
				require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "name": "new"}))

				got, err := store.Get(ctx, "p-1")
				require.NoError(t, err)
				assert.Equal(t, model.Item{"productId": "p-1", "name": "new"}, got)
			})

			t.Run("get missing", func(t *testing.T) {
				store := newStore(t, 10)
				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("update changes only the named field", func(t *testing.T) {
				store := newStore(t, 10)
				require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "name": "Widget", "price": json.Number("10")}))

				updated, err := store.Update(ctx, "p-1", "price", json.Number("11.25"))
				require.NoError(t, err)
				assert.Equal(t, model.Item{"price": json.Number("11.25")}, updated)

				got, err := store.Get(ctx, "p-1")
				require.NoError(t, err)
				assert.Equal(t, model.Item{"productId": "p-1", "name": "Widget", "price": json.Number("11.25")}, got)
			})

			t.Run("update adds a new field", func(t *testing.T) {
				store := newStore(t, 10)
				require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1"}))

				_, err := store.Update(ctx, "p-1", "tags", []any{"a", "b"})
				require.NoError(t, err)

				got, err := store.Get(ctx, "p-1")
				require.NoError(t, err)
				assert.Equal(t, []any{"a", "b"}, got["tags"])
			})

			t.Run("update missing", func(t *testing.T) {
				store := newStore(t, 10)
				_, err := store.Update(ctx, "ghost", "name", "x")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = store.Get(ctx, "ghost")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete returns the prior item", func(t *testing.T) {
				store := newStore(t, 10)
				require.NoError(t, store.Put(ctx, model.Item{"productId": "p-1", "name": "Widget"}))

				prev, err := store.Delete(ctx, "p-1")
				require.NoError(t, err)
				assert.Equal(t, model.Item{"productId": "p-1", "name": "Widget"}, prev)

				_, err = store.Get(ctx, "p-1")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete missing", func(t *testing.T) {
				store := newStore(t, 10)
				prev, err := store.Delete(ctx, "ghost")
				require.NoError(t, err)
				assert.Nil(t, prev)
			})

			for _, count := range []int{0, 1, 3, 17} {
				t.Run(fmt.Sprintf("scan returns all %d items", count), func(t *testing.T) {
					store := newStore(t, 3)
					want := make([]string, 0, count)
					for i := 0; i < count; i++ {
						id := fmt.Sprintf("p-%02d", i)
						want = append(want, id)
						require.NoError(t, store.Put(ctx, model.Item{"productId": id, "n": json.Number(fmt.Sprint(i))}))
					}

					items := scanAll(t, store)
					got := make([]string, 0, len(items))
					for _, item := range items {
						got = append(got, item.ID())
					}
					sort.Strings(got)
					assert.Equal(t, want, got)
				})
			}
		})
	}
}
