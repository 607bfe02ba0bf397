package repository

import (
	"context"
	"sync"

	"github.com/tidwall/btree"

	"github.com/deppfellow/product-inventory/internal/model"
)

// MemoryStore keeps items in an ordered map. Scans walk ids in ascending
// order and the continuation token is the last id of the previous page.
//
// Used by the "memory" driver and by tests of the upper layers.
type MemoryStore struct {
	mu       sync.RWMutex
	items    btree.Map[string, model.Item]
	pageSize int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(pageSize int) *MemoryStore {
	if pageSize < 1 {
		pageSize = 1
	}
	return &MemoryStore{pageSize: pageSize}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return item.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Set(item.ID(), item.Clone())
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id, key string, value any) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	updated := item.Clone()
	updated[key] = model.CloneValue(value)
	s.items.Set(id, updated)

	return model.Item{key: model.CloneValue(value)}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.items.Delete(id)
	if !ok {
		return nil, nil
	}
	return prev, nil
}

func (s *MemoryStore) Scan(ctx context.Context, token string) (Page, error) {
	after, err := decodeToken(token)
	if err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page := Page{Items: make([]model.Item, 0, s.pageSize)}
	more := false

	s.items.Ascend(after, func(id string, item model.Item) bool {
		if token != "" && id == after {
			return true
		}
		if len(page.Items) == s.pageSize {
			more = true
			return false
		}
		page.Items = append(page.Items, item.Clone())
		return true
	})

	if more {
		page.Next = encodeToken(page.Items[len(page.Items)-1].ID())
	}

	return page, nil
}

// Len reports the number of stored items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}
