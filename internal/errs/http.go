package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "productId", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the application error type.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST"), logged only
//   - Message: human-friendly message returned to the client
//   - Status: HTTP status code
//   - Errors: per-field errors for input validation failures
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError, regardless of status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of the error with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Errors:  e.Errors,
	}
}

// Body is the response body for the error: {"message": ...} plus the
// field errors when there are any.
func (e *HTTPError) Body() map[string]any {
	body := map[string]any{"message": e.Message}
	if len(e.Errors) > 0 {
		body["errors"] = e.Errors
	}
	return body
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
