package repository

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/deppfellow/product-inventory/internal/model"
)

// PgxQuerier is the part of *pgxpool.Pool the store uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps each item as a jsonb document in the products
// table (see the database migrations).
type PostgresStore struct {
	db       PgxQuerier
	pageSize int
}

// NewPostgresStore creates a store over an open pool.
func NewPostgresStore(db PgxQuerier, pageSize int) *PostgresStore {
	return &PostgresStore{db: db, pageSize: pageSize}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.Item, error) {
	stmt := `
		SELECT
			attributes::text
		FROM
			products
		WHERE
			product_id = @product_id
	`

	var raw string
	err := s.db.QueryRow(ctx, stmt, pgx.NamedArgs{"product_id": id}).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get product %s", id)
	}

	return decodeItem(raw)
}

func (s *PostgresStore) Put(ctx context.Context, item model.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return errors.Wrap(err, "failed to encode product")
	}

	stmt := `
		INSERT INTO
			products (product_id, attributes)
		VALUES
			(@product_id, @attributes::jsonb)
		ON CONFLICT (product_id) DO UPDATE
		SET
			attributes = EXCLUDED.attributes,
			updated_at = NOW()
	`

	_, err = s.db.Exec(ctx, stmt, pgx.NamedArgs{
		"product_id": item.ID(),
		"attributes": string(raw),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store product %s", item.ID())
	}

	return nil
}

// Update writes one top-level key with jsonb_set. The key is bound as a
// parameter, never spliced into the statement.
func (s *PostgresStore) Update(ctx context.Context, id, key string, value any) (model.Item, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode attribute value")
	}

	stmt := `
		UPDATE products
		SET
			attributes = jsonb_set(attributes, ARRAY[@key::text], @value::jsonb, TRUE),
			updated_at = NOW()
		WHERE
			product_id = @product_id
		RETURNING
			(attributes -> @key::text)::text
	`

	var updated string
	err = s.db.QueryRow(ctx, stmt, pgx.NamedArgs{
		"product_id": id,
		"key":        key,
		"value":      string(raw),
	}).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to update product %s", id)
	}

	v, err := decodeValue(updated)
	if err != nil {
		return nil, err
	}

	return model.Item{key: v}, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (model.Item, error) {
	stmt := `
		DELETE FROM products
		WHERE
			product_id = @product_id
		RETURNING
			attributes::text
	`

	var raw string
	err := s.db.QueryRow(ctx, stmt, pgx.NamedArgs{"product_id": id}).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to delete product %s", id)
	}

	return decodeItem(raw)
}

// Scan pages by product_id. The token is the last id of the previous
// page; one extra row is read to know whether another page follows.
func (s *PostgresStore) Scan(ctx context.Context, token string) (Page, error) {
	after, err := decodeToken(token)
	if err != nil {
		return Page{}, err
	}

	stmt := `
		SELECT
			product_id,
			attributes::text
		FROM
			products
		WHERE
			product_id > @after
		ORDER BY
			product_id ASC
		LIMIT
			@limit
	`

	rows, err := s.db.Query(ctx, stmt, pgx.NamedArgs{
		"after": after,
		"limit": s.pageSize + 1,
	})
	if err != nil {
		return Page{}, errors.Wrap(err, "failed to scan products")
	}
	defer rows.Close()

	page := Page{Items: make([]model.Item, 0, s.pageSize)}
	var lastID string
	more := false

	for rows.Next() {
		if len(page.Items) == s.pageSize {
			more = true
			break
		}

		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return Page{}, errors.Wrap(err, "failed to scan product row")
		}

		item, err := decodeItem(raw)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
		lastID = id
	}
	if err := rows.Err(); err != nil {
		return Page{}, errors.Wrap(err, "failed to iterate products")
	}

	if more {
		page.Next = encodeToken(lastID)
	}

	return page, nil
}

func decodeItem(raw string) (model.Item, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Errorf("stored product is not an object: %s", raw)
	}
	return model.Item(m), nil
}

// decodeValue parses stored JSON keeping numbers as json.Number.
func decodeValue(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "failed to decode stored product")
	}
	return v, nil
}
