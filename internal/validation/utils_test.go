package validation

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/model"
)

type lookupPayload struct {
	ProductID string `query:"productId" validate:"required"`
	Verbose   bool   `query:"verbose"`
}

func (p *lookupPayload) Bind(r *model.Request) error { return DecodeQuery(r, p) }
func (p *lookupPayload) Validate() error             { return Struct(p) }

type renamePayload struct {
	ProductID string `json:"productId" validate:"required"`
	Name      string `json:"name" validate:"required,max=5"`
}

func (p *renamePayload) Bind(r *model.Request) error { return DecodeBody(r, p) }

func (p *renamePayload) Validate() error {
	if err := Struct(p); err != nil {
		return err
	}
	if p.Name == p.ProductID {
		return CustomValidationErrors{{Field: "name", Message: "must differ from productId"}}
	}
	return nil
}

func body(s string) *string { return &s }

func badRequest(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	return httpErr
}

func TestBindAndValidate_Query(t *testing.T) {
	p := &lookupPayload{}
	err := BindAndValidate(&model.Request{QueryStringParameters: map[string]string{"productId": "p-1", "verbose": "true"}}, p)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ProductID)
	assert.True(t, p.Verbose)

	err = BindAndValidate(&model.Request{}, &lookupPayload{})
	httpErr := badRequest(t, err)
	assert.Equal(t, []errs.FieldError{{Field: "productId", Error: "is required"}}, httpErr.Errors)
}

func TestBindAndValidate_Body(t *testing.T) {
	p := &renamePayload{}
	require.NoError(t, BindAndValidate(&model.Request{Body: body(`{"productId":"p-1","name":"bolt"}`)}, p))
	assert.Equal(t, "bolt", p.Name)

	tests := []struct {
		name    string
		body    *string
		message string
		fields  []errs.FieldError
	}{
		{"missing body", nil, "request body is required", nil},
		{"empty body", body(""), "request body is required", nil},
		{"malformed", body(`{"productId":`), "request body is not valid JSON: unexpected end of input", nil},
		{"trailing data", body(`{"productId":"p"} {}`), "request body must contain a single JSON value", nil},
		{"wrong type", body(`{"productId":12}`), "request body is not valid JSON: productId must be a string", nil},
		{"tag failure", body(`{"productId":"p-1","name":"toolong"}`), "Validation failed", []errs.FieldError{{Field: "name", Error: "must not exceed 5 characters"}}},
		{"custom failure", body(`{"productId":"same","name":"same"}`), "Validation failed", []errs.FieldError{{Field: "name", Error: "must differ from productId"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := badRequest(t, BindAndValidate(&model.Request{Body: tt.body}, &renamePayload{}))
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Equal(t, tt.fields, httpErr.Errors)
		})
	}
}

func TestDecodeBody_KeepsNumbers(t *testing.T) {
	var out map[string]any
	require.NoError(t, DecodeBody(&model.Request{Body: body(`{"price": 12.50}`)}, &out))
	assert.Equal(t, json.Number("12.50"), out["price"])
}
