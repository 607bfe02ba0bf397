package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/product-inventory/internal/model"
)

// updateFieldScript sets one hash field only when the hash exists, so an
// update never creates a partial item. Returns nil for a missing item.
var updateFieldScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return ARGV[2]
`)

// deleteHashScript removes a hash and returns its previous fields.
var deleteHashScript = redis.NewScript(`
local fields = redis.call('HGETALL', KEYS[1])
redis.call('DEL', KEYS[1])
return fields
`)

// RedisStore keeps each item as a hash at "<prefix>:<productId>". Every
// field value is the JSON encoding of the attribute.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	pageSize int
}

// NewRedisStore creates a store using prefix as the key namespace.
func NewRedisStore(client redis.UniversalClient, prefix string, pageSize int) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		pageSize: pageSize,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (model.Item, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get product %s", id)
	}

	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	return decodeHash(fields)
}

// Put replaces the whole hash inside MULTI/EXEC so readers never see a
// mix of old and new fields.
func (s *RedisStore) Put(ctx context.Context, item model.Item) error {
	fields := make(map[string]any, len(item))
	for k, v := range item {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "failed to encode field %s", k)
		}
		fields[k] = string(raw)
	}

	key := s.key(item.ID())
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store product %s", item.ID())
	}

	return nil
}

func (s *RedisStore) Update(ctx context.Context, id, key string, value any) (model.Item, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode attribute value")
	}

	stored, err := updateFieldScript.Run(ctx, s.client, []string{s.key(id)}, key, string(raw)).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to update product %s", id)
	}

	v, err := decodeValue(stored)
	if err != nil {
		return nil, err
	}

	return model.Item{key: v}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (model.Item, error) {
	flat, err := deleteHashScript.Run(ctx, s.client, []string{s.key(id)}).StringSlice()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete product %s", id)
	}

	if len(flat) == 0 {
		return nil, nil
	}

	fields := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		fields[flat[i]] = flat[i+1]
	}

	return decodeHash(fields)
}

// Scan follows the SCAN cursor; the token is the cursor in decimal. SCAN
// may return a key twice across pages, callers de-duplicate by id.
func (s *RedisStore) Scan(ctx context.Context, token string) (Page, error) {
	var cursor uint64
	if token != "" {
		raw, err := decodeToken(token)
		if err != nil {
			return Page{}, err
		}
		cursor, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Page{}, errors.Wrap(err, "invalid continuation token")
		}
	}

	keys, next, err := s.client.Scan(ctx, cursor, s.prefix+":*", int64(s.pageSize)).Result()
	if err != nil {
		return Page{}, errors.Wrap(err, "failed to scan products")
	}

	page := Page{Items: make([]model.Item, 0, len(keys))}

	if len(keys) > 0 {
		cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range keys {
				pipe.HGetAll(ctx, key)
			}
			return nil
		})
		if err != nil {
			return Page{}, errors.Wrap(err, "failed to load scanned products")
		}

		for _, cmd := range cmds {
			fields, err := cmd.(*redis.MapStringStringCmd).Result()
			if err != nil {
				return Page{}, errors.Wrap(err, "failed to load scanned product")
			}
			// Deleted between SCAN and HGETALL.
			if len(fields) == 0 {
				continue
			}

			item, err := decodeHash(fields)
			if err != nil {
				return Page{}, err
			}
			page.Items = append(page.Items, item)
		}
	}

	if next != 0 {
		page.Next = encodeToken(strconv.FormatUint(next, 10))
	}

	return page, nil
}

func decodeHash(fields map[string]string) (model.Item, error) {
	item := make(model.Item, len(fields))
	for k, raw := range fields {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", k)
		}
		item[k] = v
	}
	return item, nil
}
