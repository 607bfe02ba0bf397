package handler

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/deppfellow/product-inventory/internal/lib/utils"
	"github.com/deppfellow/product-inventory/internal/model"
	"github.com/deppfellow/product-inventory/internal/validation"
)

// EmptyRequest is the payload of operations that read nothing from the
// request.
type EmptyRequest struct{}

func NewEmptyRequest() *EmptyRequest { return &EmptyRequest{} }

func (r *EmptyRequest) Bind(*model.Request) error { return nil }

func (r *EmptyRequest) Validate() error { return nil }

// GetProductRequest carries the productId query parameter.
type GetProductRequest struct {
	ProductID string `query:"productId" validate:"required"`
}

func NewGetProductRequest() *GetProductRequest { return &GetProductRequest{} }

func (r *GetProductRequest) Bind(req *model.Request) error {
	return validation.DecodeQuery(req, r)
}

func (r *GetProductRequest) Validate() error {
	return validation.Struct(r)
}

// CreateProductRequest is the whole JSON object to store.
type CreateProductRequest struct {
	Item model.Item

	// numberErr is set when a number in the body cannot be stored. It is
	// reported by Validate so the client gets a field error.
	numberErr *utils.NumberError
}

func NewCreateProductRequest() *CreateProductRequest { return &CreateProductRequest{} }

func (r *CreateProductRequest) Bind(req *model.Request) error {
	var item map[string]any
	if err := validation.DecodeBody(req, &item); err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	// Numbers are canonicalized before the store sees them: whatever is
	// written must be readable back.
	normalized, err := normalizeNumbers(item, &r.numberErr)
	if err != nil || r.numberErr != nil {
		return err
	}
	r.Item = normalized.(map[string]any)
	return nil
}

func (r *CreateProductRequest) Validate() error {
	if r.numberErr != nil {
		return numberValidationError("", r.numberErr)
	}

	if r.Item == nil {
		return validation.CustomValidationErrors{{
			Message: "request body must be a JSON object",
		}}
	}

	raw, ok := r.Item[model.IDField]
	if !ok {
		return validation.CustomValidationErrors{{Field: model.IDField, Message: "is required"}}
	}

	id, ok := raw.(string)
	if !ok {
		return validation.CustomValidationErrors{{Field: model.IDField, Message: "must be a string"}}
	}
	if strings.TrimSpace(id) == "" {
		return validation.CustomValidationErrors{{Field: model.IDField, Message: "must not be empty"}}
	}

	return nil
}

// UpdateProductRequest sets UpdateKey to UpdateValue on one product.
// updateValue may be any JSON value, null included, but must be present.
type UpdateProductRequest struct {
	ProductID   string          `json:"productId" validate:"required"`
	UpdateKey   string          `json:"updateKey" validate:"required"`
	UpdateValue json.RawMessage `json:"updateValue"`

	value     any
	numberErr *utils.NumberError
}

func NewUpdateProductRequest() *UpdateProductRequest { return &UpdateProductRequest{} }

func (r *UpdateProductRequest) Bind(req *model.Request) error {
	if err := validation.DecodeBody(req, r); err != nil {
		return err
	}

	if r.UpdateValue == nil {
		return nil
	}

	var value any
	dec := json.NewDecoder(strings.NewReader(string(r.UpdateValue)))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return errors.Wrap(err, "decode updateValue")
	}

	normalized, err := normalizeNumbers(value, &r.numberErr)
	if err != nil {
		return err
	}
	r.value = normalized
	return nil
}

func (r *UpdateProductRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	var problems validation.CustomValidationErrors
	if r.numberErr != nil {
		problems = append(problems, numberValidationError("updateValue", r.numberErr)...)
	}
	if r.UpdateValue == nil {
		problems = append(problems, validation.CustomValidationError{
			Field:   "updateValue",
			Message: "is required",
		})
	}
	if r.UpdateKey == model.IDField {
		problems = append(problems, validation.CustomValidationError{
			Field:   "updateKey",
			Message: "cannot be " + model.IDField,
		})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

// Value is the decoded updateValue, numbers as json.Number.
func (r *UpdateProductRequest) Value() any {
	return r.value
}

// normalizeNumbers canonicalizes every number in v. A number outside the
// storable range is not an error of the request plumbing: it is stored in
// numberErr for Validate to report and v is returned unchanged.
func normalizeNumbers(v any, numberErr **utils.NumberError) (any, error) {
	normalized, err := utils.NormalizeNumbers(v)
	if err != nil {
		var numErr *utils.NumberError
		if errors.As(err, &numErr) {
			*numberErr = numErr
			return v, nil
		}
		return nil, err
	}
	return normalized, nil
}

// numberValidationError reports numErr as a field error. prefix is the
// body field holding the walked value, empty for the body itself.
func numberValidationError(prefix string, numErr *utils.NumberError) validation.CustomValidationErrors {
	field := numErr.Path
	switch {
	case prefix == "":
	case field == "":
		field = prefix
	case strings.HasPrefix(field, "["):
		field = prefix + field
	default:
		field = prefix + "." + field
	}

	return validation.CustomValidationErrors{{
		Field:   field,
		Message: numErr.Reason,
	}}
}

// DeleteProductRequest names the product to remove.
type DeleteProductRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func NewDeleteProductRequest() *DeleteProductRequest { return &DeleteProductRequest{} }

func (r *DeleteProductRequest) Bind(req *model.Request) error {
	return validation.DecodeBody(req, r)
}

func (r *DeleteProductRequest) Validate() error {
	return validation.Struct(r)
}
