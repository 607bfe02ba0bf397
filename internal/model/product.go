// Package model holds the data types shared by every layer: the open
// product item and the transport-neutral request description.
package model

import "encoding/json"

// IDField is the attribute that identifies an item in the collection.
const IDField = "productId"

// Item is a single product record.
//
// There is no fixed schema: any JSON value the caller supplies is kept.
// Numbers are held as json.Number so precision survives a round trip
// through the store.
type Item map[string]any

// ID returns the item identifier, or "" when it is missing or not a string.
func (i Item) ID() string {
	id, _ := i[IDField].(string)
	return id
}

// Clone returns a deep copy of the item. Nested maps and slices are
// copied so the caller can mutate the result freely.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON value held in an item.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = CloneValue(inner)
		}
		return m
	case Item:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for idx, inner := range t {
			s[idx] = CloneValue(inner)
		}
		return s
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	default:
		return v
	}
}
