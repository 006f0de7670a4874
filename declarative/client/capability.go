package client

import (
	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
)

// Capability is a build-time plugin: each installed component passes
// through every capability in configuration order, which may return a
// wrapped replacement.
type Capability interface {
	Transport(t interfaces.Transport) interfaces.Transport
	Encoder(e interfaces.Encoder) interfaces.Encoder
	Decoder(d interfaces.Decoder) interfaces.Decoder
	ErrorDecoder(d interfaces.ErrorDecoder) interfaces.ErrorDecoder
	Retryer(r Retryer) Retryer
	RequestInterceptors(is []interfaces.RequestInterceptor) []interfaces.RequestInterceptor
	ResponseInterceptors(is []interfaces.ResponseInterceptor) []interfaces.ResponseInterceptor
}

// BaseCapability passes every component through unchanged. Embed it and
// override only the hooks a capability cares about.
type BaseCapability struct{}

// Transport implements Capability.
func (BaseCapability) Transport(t interfaces.Transport) interfaces.Transport { return t }

// Encoder implements Capability.
func (BaseCapability) Encoder(e interfaces.Encoder) interfaces.Encoder { return e }

// Decoder implements Capability.
func (BaseCapability) Decoder(d interfaces.Decoder) interfaces.Decoder { return d }

// ErrorDecoder implements Capability.
func (BaseCapability) ErrorDecoder(d interfaces.ErrorDecoder) interfaces.ErrorDecoder { return d }

// Retryer implements Capability.
func (BaseCapability) Retryer(r Retryer) Retryer { return r }

// RequestInterceptors implements Capability.
func (BaseCapability) RequestInterceptors(is []interfaces.RequestInterceptor) []interfaces.RequestInterceptor {
	return is
}

// ResponseInterceptors implements Capability.
func (BaseCapability) ResponseInterceptors(is []interfaces.ResponseInterceptor) []interfaces.ResponseInterceptor {
	return is
}
