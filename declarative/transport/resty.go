// Package transport provides the bundled Transport implementations: a
// resty-backed default and a fasthttp-backed alternative for hot paths.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

const (
	// UserAgentBase is the user agent prefix for outgoing requests.
	UserAgentBase = "go-declarative-http"

	// Version is the library version reported in the user agent.
	Version = "1.0.0"
)

// Resty executes frozen requests through a resty client. Response bodies
// are buffered before the response is returned, so releasing them never
// blocks on the network.
type Resty struct {
	client *resty.Client
	logger *zap.Logger
}

// Ensure Resty implements the interface
var _ interfaces.Transport = (*Resty)(nil)

// RestyOption configures the resty transport.
type RestyOption func(*Resty)

// WithClient replaces the underlying resty client.
func WithClient(c *resty.Client) RestyOption {
	return func(t *Resty) {
		t.client = c
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger *zap.Logger) RestyOption {
	return func(t *Resty) {
		t.logger = logger
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(ua string) RestyOption {
	return func(t *Resty) {
		t.client.SetHeader("User-Agent", ua)
	}
}

// WithProxy routes all requests through a proxy URL.
func WithProxy(proxyURL string) RestyOption {
	return func(t *Resty) {
		t.client.SetProxy(proxyURL)
	}
}

// WithTLSClientConfig sets custom TLS configuration.
func WithTLSClientConfig(cfg *tls.Config) RestyOption {
	return func(t *Resty) {
		t.client.SetTLSClientConfig(cfg)
	}
}

// WithRoundTripper sets a custom http.RoundTripper on the underlying
// client.
func WithRoundTripper(rt http.RoundTripper) RestyOption {
	return func(t *Resty) {
		t.client.SetTransport(rt)
	}
}

// NewResty creates the default transport.
func NewResty(options ...RestyOption) *Resty {
	client := resty.New()
	client.SetHeader("User-Agent", UserAgentBase+"/"+Version)

	t := &Resty{
		client: client,
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Client returns the underlying resty client, e.g. for activating
// httpmock in tests.
func (t *Resty) Client() *resty.Client {
	return t.client
}

// Execute implements interfaces.Transport. Redirect handling follows the
// underlying client's policy; opts.ReadTimeout bounds the exchange via
// the context.
func (t *Resty) Execute(ctx context.Context, req *request.Request, opts *interfaces.Options) (*interfaces.Response, error) {
	if opts != nil && opts.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ReadTimeout)
		defer cancel()
	}

	r := t.client.R().SetContext(ctx)
	r.SetHeaderMultiValues(req.Headers)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	t.logger.Debug("executing request",
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		t.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, err
	}

	body := []byte(resp.String())
	return &interfaces.Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    resp.Header(),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}
