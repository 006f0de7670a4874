package transport

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OTelConfig holds OpenTelemetry configuration options for the resty
// transport.
type OTelConfig struct {
	// TracerProvider is the OpenTelemetry tracer provider to use.
	// If nil, the global tracer provider will be used.
	TracerProvider trace.TracerProvider

	// Propagators is the propagator to use for context propagation.
	// If nil, the global propagator will be used.
	Propagators propagation.TextMapPropagator

	// ServiceName is reported in the log entry written when tracing is
	// enabled; it is not attached to spans. DefaultOTelConfig sets it to
	// "declarative-http-client".
	ServiceName string

	// SpanNameFormatter allows customizing span names.
	// If nil, defaults to "HTTP {method}" format.
	SpanNameFormatter func(operation string, req *http.Request) string
}

// DefaultOTelConfig returns a default OpenTelemetry configuration.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		TracerProvider: otel.GetTracerProvider(),
		Propagators:    otel.GetTextMapPropagator(),
		ServiceName:    "declarative-http-client",
	}
}

// WithTracing enables OpenTelemetry tracing for all requests the
// transport executes.
func WithTracing(config *OTelConfig) RestyOption {
	return func(t *Resty) {
		t.EnableTracing(config)
	}
}

// EnableTracing wraps the underlying HTTP client transport with
// OpenTelemetry instrumentation. Spans follow the OpenTelemetry semantic
// conventions for HTTP clients: method, URL, status code and timing.
func (t *Resty) EnableTracing(config *OTelConfig) {
	if config == nil {
		config = DefaultOTelConfig()
	}

	httpClient := t.client.Client()
	if httpClient == nil {
		return
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	opts := []otelhttp.Option{
		otelhttp.WithTracerProvider(config.TracerProvider),
		otelhttp.WithPropagators(config.Propagators),
	}
	if config.SpanNameFormatter != nil {
		opts = append(opts, otelhttp.WithSpanNameFormatter(config.SpanNameFormatter))
	}

	httpClient.Transport = otelhttp.NewTransport(base, opts...)

	t.logger.Info("OpenTelemetry tracing enabled",
		zap.String("service_name", config.ServiceName))
}
