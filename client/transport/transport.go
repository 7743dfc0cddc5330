// Package transport provides the HTTP transport contract consumed by the
// Chirp SDK core, plus a default net/http implementation.
//
// The core never talks to net/http directly: every request flows through
// the Transport interface so applications can substitute their own HTTP
// stack, proxies or test doubles.
//
// Example usage:
//
//	t := transport.NewHTTP("https://ps.chirpmesh.net")
//	resp, err := t.Send(ctx, transport.Request{
//	    Method: transport.MethodGet,
//	    Path:   "/v2/subscribe/sub-key/ch1/0",
//	    Query:  map[string]string{"tt": "0", "uuid": "user-1"},
//	})
package transport

import (
	"context"
	"strings"
)

// Method is an HTTP method accepted by the Chirp service.
type Method string

// Methods used by SDK requests.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
)

// Request describes a service call independent of the underlying HTTP
// stack.
type Request struct {
	// Method is the HTTP method.
	Method Method
	// Path is the URL path, already percent-encoded.
	Path string
	// Query carries the query parameters.
	Query map[string]string
	// Headers carries additional request headers.
	Headers map[string]string
	// Body is the request body, nil for body-less requests.
	Body []byte
}

// Response is the transport-level result of a request. A Response is
// returned for every completed HTTP exchange including 4xx / 5xx; only
// failures below the HTTP layer surface as errors.
type Response struct {
	// Status is the HTTP status code.
	Status int
	// Headers holds the response headers.
	Headers map[string]string
	// Body is the response body, nil when the response had none.
	Body []byte
}

// Header performs a case-insensitive header lookup.
func (r *Response) Header(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	if v, ok := r.Headers[name]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Transport sends requests to the Chirp service.
type Transport interface {
	// Send performs the request, honoring ctx for cancellation and
	// deadlines. It returns an error only for failures below the HTTP
	// layer.
	Send(ctx context.Context, req Request) (*Response, error)
}
