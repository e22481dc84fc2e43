// Package provider defines the outbound transport used to reach the
// generation provider and the Gemini wire types.
package provider

import (
	"context"
	"net/http"
)

// Request is a single outbound call to the provider.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw outcome of a call that reached the provider.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends one request and returns the provider's status and body.
//
// A non-nil error means the call failed before a response was received
// (DNS, connection reset, context cancellation). Non-2xx statuses are not
// errors at this level.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}
