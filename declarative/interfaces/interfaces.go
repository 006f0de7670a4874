// Package interfaces defines the contracts consumed by the declarative
// engine: the transport, codecs, interceptors and expansion strategies.
// Keeping them in a dedicated package breaks import cycles between the
// engine, the concrete transports and user code.
package interfaces

import (
	"context"
	"reflect"

	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

// Transport executes a frozen request and returns the raw response.
// Implementations must be safe for concurrent use. Low-level I/O failures
// are returned as plain errors; the engine wraps them into retryable
// errors.
type Transport interface {
	Execute(ctx context.Context, req *request.Request, opts *Options) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *request.Request, opts *Options) (*Response, error)

// Execute implements Transport.
func (f TransportFunc) Execute(ctx context.Context, req *request.Request, opts *Options) (*Response, error) {
	return f(ctx, req, opts)
}

// Encoder populates a request template's body from a typed value.
// bodyType is the declared type of the value being encoded.
type Encoder interface {
	Encode(value any, bodyType reflect.Type, t *request.RequestTemplate) error
}

// Decoder turns a response body into a value of the declared result type.
// resultType is never nil: void results are drained by the engine without
// consulting the decoder, unless the engine is configured to decode them,
// in which case the decoder receives the empty interface type.
type Decoder interface {
	Decode(resp *Response, resultType reflect.Type) (any, error)
}

// ErrorDecoder maps a non-2xx response to an error. Returning a retryable
// error (see the client package) re-enters the retry loop; any other error
// propagates to the caller.
type ErrorDecoder interface {
	Decode(configKey string, resp *Response) error
}

// ErrorDecoderFunc adapts a function to the ErrorDecoder interface.
type ErrorDecoderFunc func(configKey string, resp *Response) error

// Decode implements ErrorDecoder.
func (f ErrorDecoderFunc) Decode(configKey string, resp *Response) error {
	return f(configKey, resp)
}

// RequestInterceptor may mutate the request template before it is frozen.
// Interceptors run in the order they were configured.
type RequestInterceptor interface {
	Apply(t *request.RequestTemplate)
}

// RequestInterceptorFunc adapts a function to the RequestInterceptor interface.
type RequestInterceptorFunc func(t *request.RequestTemplate)

// Apply implements RequestInterceptor.
func (f RequestInterceptorFunc) Apply(t *request.RequestTemplate) {
	f(t)
}

// InvocationContext carries per-call metadata through the response
// interceptor chain.
type InvocationContext struct {
	ConfigKey  string
	ReturnType reflect.Type
	Response   *Response
}

// Chain advances the response interceptor chain. The terminal chain element
// returns the current response unchanged.
type Chain func(ctx context.Context, ic *InvocationContext) (*Response, error)

// ResponseInterceptor inspects or replaces the response before decoding.
// Returning without calling next short-circuits the chain.
type ResponseInterceptor interface {
	Intercept(ctx context.Context, ic *InvocationContext, next Chain) (*Response, error)
}

// ResponseInterceptorFunc adapts a function to the ResponseInterceptor interface.
type ResponseInterceptorFunc func(ctx context.Context, ic *InvocationContext, next Chain) (*Response, error)

// Intercept implements ResponseInterceptor.
func (f ResponseInterceptorFunc) Intercept(ctx context.Context, ic *InvocationContext, next Chain) (*Response, error) {
	return f(ctx, ic, next)
}

// Expander converts a single bound argument to its string form before
// placeholder substitution.
type Expander interface {
	Expand(value any) (string, error)
}

// ExpanderFunc adapts a function to the Expander interface.
type ExpanderFunc func(value any) (string, error)

// Expand implements Expander.
func (f ExpanderFunc) Expand(value any) (string, error) {
	return f(value)
}

// QueryMapEncoder flattens a query-map argument into query parameters.
type QueryMapEncoder interface {
	Encode(value any) (map[string][]string, error)
}
