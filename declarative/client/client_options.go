package client

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/contract"
	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
)

// Option is a function type for configuring the Engine.
type Option func(*Engine) error

// WithContract replaces the binding dialect used to parse definition
// structs.
func WithContract(c contract.Contract) Option {
	return func(e *Engine) error {
		if c == nil {
			return fmt.Errorf("contract cannot be nil")
		}
		e.contract = c
		return nil
	}
}

// WithEncoder sets the request body encoder.
func WithEncoder(enc interfaces.Encoder) Option {
	return func(e *Engine) error {
		if enc == nil {
			return fmt.Errorf("encoder cannot be nil")
		}
		e.encoder = enc
		return nil
	}
}

// WithDecoder sets the response body decoder.
func WithDecoder(dec interfaces.Decoder) Option {
	return func(e *Engine) error {
		if dec == nil {
			return fmt.Errorf("decoder cannot be nil")
		}
		e.decoder = dec
		return nil
	}
}

// WithErrorDecoder sets the decoder consulted for non-2xx responses.
func WithErrorDecoder(dec interfaces.ErrorDecoder) Option {
	return func(e *Engine) error {
		if dec == nil {
			return fmt.Errorf("error decoder cannot be nil")
		}
		e.errorDecoder = dec
		return nil
	}
}

// WithTransport sets the transport that executes frozen requests.
func WithTransport(t interfaces.Transport) Option {
	return func(e *Engine) error {
		if t == nil {
			return fmt.Errorf("transport cannot be nil")
		}
		e.transport = t
		return nil
	}
}

// WithOptions sets the default per-call transport options. An operation
// may still accept a *interfaces.Options parameter to override them.
func WithOptions(opts *interfaces.Options) Option {
	return func(e *Engine) error {
		e.options = opts.Clone()
		return nil
	}
}

// WithLogger sets a custom logger for the engine and its handlers.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// WithRetryer sets the retry policy cloned per invocation.
func WithRetryer(r Retryer) Option {
	return func(e *Engine) error {
		if r == nil {
			return fmt.Errorf("retryer cannot be nil")
		}
		e.retryer = r
		return nil
	}
}

// WithRequestInterceptor appends a request interceptor. Interceptors run
// in the order they were added.
func WithRequestInterceptor(i interfaces.RequestInterceptor) Option {
	return func(e *Engine) error {
		e.requestInterceptors = append(e.requestInterceptors, i)
		return nil
	}
}

// WithResponseInterceptor appends a response interceptor. Interceptors
// run in the order they were added.
func WithResponseInterceptor(i interfaces.ResponseInterceptor) Option {
	return func(e *Engine) error {
		e.responseInterceptors = append(e.responseInterceptors, i)
		return nil
	}
}

// WithQueryMapEncoder sets the strategy that flattens query-map
// arguments.
func WithQueryMapEncoder(enc interfaces.QueryMapEncoder) Option {
	return func(e *Engine) error {
		if enc == nil {
			return fmt.Errorf("query map encoder cannot be nil")
		}
		e.queryMapEncoder = enc
		return nil
	}
}

// WithCapability appends a build-time plugin that may wrap installed
// components. Capabilities apply in the order they were added.
func WithCapability(c Capability) Option {
	return func(e *Engine) error {
		e.capabilities = append(e.capabilities, c)
		return nil
	}
}

// WithDismiss404 makes 404 responses succeed with the zero value of the
// declared result type (nil for pointer, slice and map results) instead
// of an error. Void and *interfaces.Response operations are unaffected.
func WithDismiss404() Option {
	return func(e *Engine) error {
		e.dismiss404 = true
		return nil
	}
}

// WithCloseAfterDecode controls whether response bodies are released
// after decoding. It defaults to true and is forced off for operations
// returning *interfaces.Response.
func WithCloseAfterDecode(enabled bool) Option {
	return func(e *Engine) error {
		e.closeAfterDecode = enabled
		return nil
	}
}

// WithDecodeVoid routes even void operations through the decoder instead
// of draining their bodies.
func WithDecodeVoid() Option {
	return func(e *Engine) error {
		e.decodeVoid = true
		return nil
	}
}

// WithUnwrapRetryErrors surfaces the cause of the last retryable error
// on exhaustion instead of the retryable wrapper itself.
func WithUnwrapRetryErrors() Option {
	return func(e *Engine) error {
		e.unwrapRetryErrors = true
		return nil
	}
}
