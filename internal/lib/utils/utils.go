// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Bounds of a storable number. They are the limits of a DynamoDB N
// value, the strictest of the supported stores: 38 significant digits and
// magnitudes from 1E-130 up to (but excluding) 1E+126.
const (
	MaxSignificantDigits = 38
	MinNumberExponent    = -130
	MaxNumberExponent    = 125
)

// NumberError reports a number that cannot be stored. Path locates it
// inside the walked value, e.g. "dimensions.weights[2]"; it is empty when
// the value itself is the number.
type NumberError struct {
	Path   string
	Number string
	Reason string
}

func (e *NumberError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// CanonicalNumber rewrites a JSON number literal into its shortest exact
// decimal form.
//
// Examples:
//
//	"12.50" -> 12.5
//	"1E+2"  -> 100
//	"-0"    -> 0
//
// The value goes through shopspring/decimal so no float rounding happens.
// Numbers outside the storable range are rejected with a *NumberError
// before they are expanded, so "1e-20000000" never becomes a 20 MB string.
func CanonicalNumber(s string) (json.Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", &NumberError{Number: s, Reason: "is not a representable number"}
	}
	if err := CheckDecimal(d); err != nil {
		err.Number = s
		return "", err
	}
	return json.Number(d.String()), nil
}

// CheckDecimal reports whether d fits the storable range.
func CheckDecimal(d decimal.Decimal) *NumberError {
	if d.Sign() == 0 {
		return nil
	}

	// Coefficient() is a copy, safe to modify.
	digits := d.Coefficient()
	digits.Abs(digits)
	text := digits.String()

	if significant := len(strings.TrimRight(text, "0")); significant > MaxSignificantDigits {
		return &NumberError{
			Reason: fmt.Sprintf("has more than %d significant digits", MaxSignificantDigits),
		}
	}

	// Exponent of the leading digit: 12.5 (125E-1) -> 1.
	adjusted := int64(d.Exponent()) + int64(len(text)) - 1
	if adjusted < MinNumberExponent || adjusted > MaxNumberExponent {
		return &NumberError{
			Reason: fmt.Sprintf("is out of range (1E%d to 1E+%d)", MinNumberExponent, MaxNumberExponent+1),
		}
	}

	return nil
}

// NormalizeNumbers walks a JSON-like value and replaces every numeric leaf
// with its canonical json.Number.
//
// Handled leaves:
//   - json.Number, decimal.Decimal and *decimal.Decimal
//   - float32/float64 (NaN and infinities are rejected)
//
// A number outside the storable range fails with a *NumberError whose
// Path names where it was found.
//
// Maps with string keys, slices and arrays are rebuilt as map[string]any
// and []any. Anything else is returned unchanged.
func NormalizeNumbers(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		return CanonicalNumber(t.String())
	case decimal.Decimal:
		return canonicalDecimal(t)
	case *decimal.Decimal:
		if t == nil {
			return nil, nil
		}
		return canonicalDecimal(*t)
	case float64:
		return normalizeFloat(t)
	case float32:
		return normalizeFloat(float64(t))
	case string, bool, json.RawMessage, []byte:
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, nil
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			inner, err := NormalizeNumbers(iter.Value().Interface())
			if err != nil {
				return nil, withPath(err, iter.Key().String())
			}
			out[iter.Key().String()] = inner
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			inner, err := NormalizeNumbers(rv.Index(i).Interface())
			if err != nil {
				return nil, withPath(err, fmt.Sprintf("[%d]", i))
			}
			out[i] = inner
		}
		return out, nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return NormalizeNumbers(rv.Elem().Interface())
	}

	return v, nil
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &NumberError{
			Number: fmt.Sprint(f),
			Reason: "cannot be represented in JSON",
		}
	}
	return canonicalDecimal(decimal.NewFromFloat(f))
}

func canonicalDecimal(d decimal.Decimal) (any, error) {
	if err := CheckDecimal(d); err != nil {
		return nil, err
	}
	return json.Number(d.String()), nil
}

// withPath prefixes the location of a nested failure with segment, a map
// key or an "[i]" index.
func withPath(err error, segment string) error {
	var numErr *NumberError
	if !errors.As(err, &numErr) {
		return errors.Wrapf(err, "at %s", segment)
	}

	switch {
	case numErr.Path == "":
		numErr.Path = segment
	case strings.HasPrefix(numErr.Path, "["):
		numErr.Path = segment + numErr.Path
	default:
		numErr.Path = segment + "." + numErr.Path
	}
	return numErr
}
