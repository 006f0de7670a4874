package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
)

var responseType = reflect.TypeOf((*interfaces.Response)(nil))

// responseHandler runs the response interceptor chain and dispatches to
// the decoder or error decoder. It owns the response body on every path
// except a declared *interfaces.Response result, which transfers
// ownership to the caller.
type responseHandler struct {
	decoder          interfaces.Decoder
	errorDecoder     interfaces.ErrorDecoder
	interceptors     []interfaces.ResponseInterceptor
	dismiss404       bool
	closeAfterDecode bool
	decodeVoid       bool
	logger           *zap.Logger
}

func (h *responseHandler) Handle(ctx context.Context, configKey string, returnType reflect.Type, resp *interfaces.Response) (any, error) {
	ic := &interfaces.InvocationContext{
		ConfigKey:  configKey,
		ReturnType: returnType,
		Response:   resp,
	}
	resp, err := h.runInterceptors(ctx, ic)
	if err != nil {
		ic.Response.Close()
		return nil, err
	}
	ic.Response = resp

	dismissed := resp.StatusCode == http.StatusNotFound && h.dismiss404 &&
		returnType != nil && returnType != responseType

	if !resp.IsSuccess() && !dismissed {
		err := h.errorDecoder.Decode(configKey, resp)
		resp.Close()
		if err == nil {
			err = fmt.Errorf("error decoder returned no error for status %d", resp.StatusCode)
		}
		return nil, err
	}

	if returnType == responseType {
		// Caller owns the body; closeAfterDecode is forced off here.
		return resp, nil
	}
	if dismissed {
		resp.Close()
		return zeroOf(returnType), nil
	}
	if returnType == nil && !h.decodeVoid {
		resp.Close()
		return nil, nil
	}

	decodeType := returnType
	if decodeType == nil {
		// decodeVoid: run the decoder for its side effects, discard the value.
		decodeType = reflect.TypeOf((*any)(nil)).Elem()
	}
	val, derr := h.decoder.Decode(resp, decodeType)
	if h.closeAfterDecode {
		resp.Close()
	}
	if derr != nil {
		var re *RetryableError
		if errors.As(derr, &re) {
			return nil, re
		}
		return nil, &DecodeError{ConfigKey: configKey, Cause: derr}
	}
	if returnType == nil {
		return nil, nil
	}
	return val, nil
}

// runInterceptors executes the configured chain in order. The terminal
// element returns the current response unchanged.
func (h *responseHandler) runInterceptors(ctx context.Context, ic *interfaces.InvocationContext) (*interfaces.Response, error) {
	next := interfaces.Chain(func(_ context.Context, ic *interfaces.InvocationContext) (*interfaces.Response, error) {
		return ic.Response, nil
	})
	for i := len(h.interceptors) - 1; i >= 0; i-- {
		interceptor := h.interceptors[i]
		tail := next
		next = func(ctx context.Context, ic *interfaces.InvocationContext) (*interfaces.Response, error) {
			return interceptor.Intercept(ctx, ic, tail)
		}
	}
	return next(ctx, ic)
}

// zeroOf returns the zero value of t as an any, nil for nil t.
func zeroOf(t reflect.Type) any {
	if t == nil {
		return nil
	}
	return reflect.Zero(t).Interface()
}
