package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/model"
)

// Validatable is implemented by request payload types that know how to
// validate themselves, usually by running validator.Struct and returning
// validator.ValidationErrors or CustomValidationErrors.
type Validatable interface {
	Validate() error
}

// Payload is a request type that fills itself from a model.Request.
// Bind errors are reported as a 400 with the returned message.
type Payload interface {
	Validatable
	Bind(r *model.Request) error
}

// CustomValidationError is a validation issue for a single field that a
// validator tag cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var validate = newValidator()

// newValidator reports fields by their json or query tag name so error
// fields match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.Split(f.Tag.Get(tag), ",")[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Struct runs the tag rules of v with the shared validator.
func Struct(v any) error {
	return validate.Struct(v)
}

// BindAndValidate binds request data into payload and validates it.
// Both steps report failures as *errs.HTTPError with status 400.
func BindAndValidate(r *model.Request, payload Payload) error {
	if err := payload.Bind(r); err != nil {
		return errs.NewBadRequestError(err.Error(), nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, nil, fieldErrors)
	}

	return nil
}

// DecodeBody parses the JSON body into out. Numbers are kept as
// json.Number and trailing data after the first value is rejected.
func DecodeBody(r *model.Request, out any) error {
	if !r.HasBody() {
		return fmt.Errorf("request body is required")
	}

	dec := json.NewDecoder(strings.NewReader(*r.Body))
	dec.UseNumber()

	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("request body is not valid JSON: %s", describeJSONError(err))
	}

	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON value")
	}

	return nil
}

// DecodeQuery copies query string parameters into the `query`-tagged
// fields of out.
func DecodeQuery(r *model.Request, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "query",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	params := r.QueryStringParameters
	if params == nil {
		params = map[string]string{}
	}

	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("invalid query parameters: %w", err)
	}
	return nil
}

func describeJSONError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("%s must be %s", typeErr.Field, jsonKind(typeErr.Type))
		}
		return fmt.Sprintf("expected %s", jsonKind(typeErr.Type))
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "unexpected end of input"
	default:
		return err.Error()
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a JSON value"
	}
	switch t.Kind() {
	case reflect.Map, reflect.Struct:
		return "an object"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	default:
		if t == reflect.TypeOf(json.Number("")) {
			return "a number"
		}
		return "a " + t.Kind().String()
	}
}

// validateStruct calls v.Validate() and extracts field errors if
// validation fails.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	switch e := err.(type) {
	case CustomValidationErrors:
		for _, custom := range e {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: custom.Field,
				Error: custom.Message,
			})
		}

	case validator.ValidationErrors:
		for _, fe := range e {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: fieldName(fe),
				Error: tagMessage(fe),
			})
		}

	default:
		fieldErrors = append(fieldErrors, errs.FieldError{Error: err.Error()})
	}

	return "Validation failed", fieldErrors
}

func fieldName(fe validator.FieldError) string {
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"

	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())

	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())

	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())

	case "printascii":
		return "must contain printable characters only"

	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", fieldName(fe), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: %s", fieldName(fe), fe.Tag())
	}
}
