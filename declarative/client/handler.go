package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

// MethodHandler orchestrates one operation: argument binding, request
// interceptors, transport execution, response handling and the retry
// loop. One instance exists per operation per target; it is stateless
// across invocations and safe for concurrent use.
type MethodHandler struct {
	target            *Target
	md                *metadata.MethodMetadata
	transport         interfaces.Transport
	retryer           Retryer
	interceptors      []interfaces.RequestInterceptor
	responses         *responseHandler
	resolver          *templateResolver
	options           *interfaces.Options
	unwrapRetryErrors bool
	logger            *zap.Logger
}

// ConfigKey returns the operation identity this handler serves.
func (h *MethodHandler) ConfigKey() string { return h.md.ConfigKey }

// Invoke runs the full pipeline for one call.
func (h *MethodHandler) Invoke(ctx context.Context, args []any) (any, error) {
	if h.md.Ignored {
		return nil, &BindError{ConfigKey: h.md.ConfigKey, Reason: "operation is marked ignored"}
	}
	if len(args) != h.md.NumParams {
		return nil, &BindError{ConfigKey: h.md.ConfigKey,
			Reason: fmt.Sprintf("expected %d arguments, got %d", h.md.NumParams, len(args))}
	}

	tmpl, err := h.resolver.Resolve(args)
	if err != nil {
		return nil, err
	}
	for _, interceptor := range h.interceptors {
		interceptor.Apply(tmpl)
	}
	req, err := tmpl.Request()
	if err != nil {
		return nil, &BindError{ConfigKey: h.md.ConfigKey, Reason: "freezing request", Cause: err}
	}

	opts := h.options
	if h.md.OptionsIndex >= 0 {
		if o, ok := args[h.md.OptionsIndex].(*interfaces.Options); ok && o != nil {
			opts = o
		}
	}

	h.logger.Debug("executing request",
		zap.String("config_key", h.md.ConfigKey),
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	retryer := h.retryer.Clone()
	for attempt := 1; ; attempt++ {
		result, err := h.executeAndDecode(ctx, req, opts)
		if err == nil {
			h.logger.Debug("request completed",
				zap.String("config_key", h.md.ConfigKey),
				zap.Int("attempt", attempt))
			return result, nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		if perr := retryer.ContinueOrPropagate(ctx, re); perr != nil {
			return nil, h.propagate(perr)
		}
		h.logger.Info("retrying request",
			zap.String("config_key", h.md.ConfigKey),
			zap.String("url", req.URL),
			zap.Int("attempt", attempt),
			zap.Error(re.Cause))
	}
}

// executeAndDecode performs a single transport round trip and response
// handling pass. Transport I/O failures come back as RetryableError.
func (h *MethodHandler) executeAndDecode(ctx context.Context, req *request.Request, opts *interfaces.Options) (any, error) {
	resp, err := h.transport.Execute(ctx, req, opts)
	if err != nil {
		return nil, &RetryableError{
			Cause:  fmt.Errorf("transport: %w", err),
			Method: req.Method,
		}
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return h.responses.Handle(ctx, h.md.ConfigKey, h.md.ReturnType, resp)
}

// propagate applies the exhaustion policy: by default the retryable error
// itself, with WithUnwrapRetryErrors its cause.
func (h *MethodHandler) propagate(err error) error {
	if !h.unwrapRetryErrors {
		return err
	}
	var re *RetryableError
	if errors.As(err, &re) && re.Cause != nil {
		return re.Cause
	}
	return err
}
