// Package client wires the declarative engine: it parses an API
// definition struct through a contract, builds one method handler per
// operation and installs implementations into the struct's function
// fields.
package client

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/codec"
	"github.com/deploymenttheory/go-declarative-http/declarative/contract"
	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
	"github.com/deploymenttheory/go-declarative-http/declarative/transport"
)

// Target identifies one bound remote API: the definition struct type, a
// symbolic name and the base URL. Immutable after binding.
type Target struct {
	Type    reflect.Type
	Name    string
	BaseURL string
}

// String renders the target identity used in logs and diagnostics.
func (t *Target) String() string {
	return fmt.Sprintf("%s(%s) %s", t.Type.Name(), t.Name, t.BaseURL)
}

// Engine holds the wiring shared by every target it binds: contract,
// codecs, transport, retry policy and interceptors. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	contract             contract.Contract
	encoder              interfaces.Encoder
	decoder              interfaces.Decoder
	errorDecoder         interfaces.ErrorDecoder
	transport            interfaces.Transport
	options              *interfaces.Options
	retryer              Retryer
	requestInterceptors  []interfaces.RequestInterceptor
	responseInterceptors []interfaces.ResponseInterceptor
	queryMapEncoder      interfaces.QueryMapEncoder
	capabilities         []Capability
	logger               *zap.Logger
	dismiss404           bool
	closeAfterDecode     bool
	decodeVoid           bool
	unwrapRetryErrors    bool
}

// NewEngine creates an engine with the default stack: tag-dialect
// contract, JSON codecs behind a form-aware encoder, the resty transport
// and exponential-backoff retries.
func NewEngine(options ...Option) (*Engine, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	e := &Engine{
		encoder:          codec.NewFormEncoder(codec.JSONEncoder{}),
		decoder:          codec.JSONDecoder{},
		errorDecoder:     DefaultErrorDecoder{},
		transport:        transport.NewResty(),
		options:          interfaces.DefaultOptions(),
		retryer:          NewRetryer(DefaultRetryPeriod, DefaultRetryMaxPeriod, DefaultMaxAttempts),
		queryMapEncoder:  codec.QueryMapEncoder{},
		logger:           logger,
		closeAfterDecode: true,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, fmt.Errorf("failed to apply engine option: %w", err)
		}
	}
	if e.contract == nil {
		e.contract = contract.NewDefault(contract.WithLogger(e.logger))
	}

	// Capabilities wrap installed components in configuration order.
	for _, cap := range e.capabilities {
		e.transport = cap.Transport(e.transport)
		e.encoder = cap.Encoder(e.encoder)
		e.decoder = cap.Decoder(e.decoder)
		e.errorDecoder = cap.ErrorDecoder(e.errorDecoder)
		e.retryer = cap.Retryer(e.retryer)
		e.requestInterceptors = cap.RequestInterceptors(e.requestInterceptors)
		e.responseInterceptors = cap.ResponseInterceptors(e.responseInterceptors)
	}

	e.logger.Debug("engine created",
		zap.Int("request_interceptors", len(e.requestInterceptors)),
		zap.Int("response_interceptors", len(e.responseInterceptors)),
		zap.Int("capabilities", len(e.capabilities)))
	return e, nil
}

// Logger returns the engine's logger instance.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// Target parses the definition struct behind dst (a pointer to a struct
// with tagged function fields), binds it to baseURL and installs an
// implementation into every function field. Methods declared on the
// struct type itself are left alone; they can call the installed fields.
func (e *Engine) Target(dst any, name, baseURL string) error {
	v := reflect.ValueOf(dst)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return contract.Errorf("", "target must be a non-nil pointer to a definition struct, got %T", dst)
	}
	if baseURL == "" {
		return contract.Errorf("", "target base URL is required")
	}

	defType := v.Elem().Type()
	mds, err := e.contract.Parse(defType)
	if err != nil {
		return err
	}

	tgt := &Target{
		Type:    defType,
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, md := range mds {
		if err := e.install(v.Elem(), tgt, md); err != nil {
			return err
		}
	}

	e.logger.Info("target bound",
		zap.String("target", tgt.String()),
		zap.Int("operations", len(mds)))
	return nil
}

// newMethodHandler assembles the per-operation pipeline.
func (e *Engine) newMethodHandler(tgt *Target, md *metadata.MethodMetadata) *MethodHandler {
	return &MethodHandler{
		target:       tgt,
		md:           md,
		transport:    e.transport,
		retryer:      e.retryer,
		interceptors: e.requestInterceptors,
		resolver: &templateResolver{
			target:          tgt,
			md:              md,
			encoder:         e.encoder,
			queryMapEncoder: e.queryMapEncoder,
		},
		responses: &responseHandler{
			decoder:          e.decoder,
			errorDecoder:     e.errorDecoder,
			interceptors:     e.responseInterceptors,
			dismiss404:       e.dismiss404,
			closeAfterDecode: e.closeAfterDecode && md.ReturnType != responseType,
			decodeVoid:       e.decodeVoid,
			logger:           e.logger,
		},
		options:           e.options,
		unwrapRetryErrors: e.unwrapRetryErrors,
		logger:            e.logger,
	}
}
