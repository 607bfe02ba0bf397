package model

// Request describes one inbound invocation independent of the harness
// that received it. The JSON names follow the API Gateway proxy event.
type Request struct {
	HTTPMethod            string            `json:"httpMethod"`
	Path                  string            `json:"path"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	Body                  *string           `json:"body"`
}

// Query returns a query string parameter, "" when absent.
func (r *Request) Query(key string) string {
	if r == nil || r.QueryStringParameters == nil {
		return ""
	}
	return r.QueryStringParameters[key]
}

// HasBody reports whether the request carries a non-empty body.
func (r *Request) HasBody() bool {
	return r != nil && r.Body != nil && *r.Body != ""
}
