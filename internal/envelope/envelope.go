// Package envelope builds the uniform response object returned for every
// invocation, whichever harness delivered the request.
package envelope

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/deppfellow/product-inventory/internal/lib/utils"
)

// Header names and values present on every response.
const (
	HeaderContentType = "Content-Type"
	HeaderAllowOrigin = "Access-Control-Allow-Origin"

	ContentTypeJSON = "application/json"
	AllowAnyOrigin  = "*"
)

// NotFoundBody is the body of the response for an unmapped route.
const NotFoundBody = "404 Not Found"

// Response is the transport object handed back to the harness.
// Body is nil when the operation produced no body.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       *string           `json:"body,omitempty"`
}

// Headers returns a fresh copy of the fixed header set.
func Headers() map[string]string {
	return map[string]string{
		HeaderContentType: ContentTypeJSON,
		HeaderAllowOrigin: AllowAnyOrigin,
	}
}

// Build wraps a status code and an optional body into a Response.
//
// A nil body leaves Body unset. Anything else is JSON encoded with numbers
// in canonical decimal form. When the body cannot be encoded the result
// is a 500 response instead.
func Build(status int, body any) Response {
	resp := Response{
		StatusCode: status,
		Headers:    Headers(),
	}

	if body == nil {
		return resp
	}

	encoded, err := Encode(body)
	if err != nil {
		return internalError()
	}

	resp.Body = &encoded
	return resp
}

// Message builds a response whose body is {"message": msg}.
func Message(status int, msg string) Response {
	return Build(status, map[string]any{"message": msg})
}

// NotFound is the response for any (method, path) pair without a route.
func NotFound() Response {
	return Build(http.StatusNotFound, NotFoundBody)
}

// Encode serializes a body the way Build does.
func Encode(body any) (string, error) {
	normalized, err := utils.NormalizeNumbers(body)
	if err != nil {
		return "", errors.Wrap(err, "normalize response body")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return "", errors.Wrap(err, "encode response body")
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func internalError() Response {
	body := `{"message":"` + http.StatusText(http.StatusInternalServerError) + `"}`
	return Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    Headers(),
		Body:       &body,
	}
}
