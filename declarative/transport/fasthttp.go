package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

const fasthttpMaxRedirects = 10

// FastHTTP executes frozen requests through a fasthttp client. It trades
// context integration for allocation-free I/O: cancellation is only
// observed between attempts, and ReadTimeout and the context deadline map
// to a request deadline only when redirects are not followed. A request
// with FollowRedirects set runs without a deadline.
type FastHTTP struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// Ensure FastHTTP implements the interface
var _ interfaces.Transport = (*FastHTTP)(nil)

// FastHTTPOption configures the fasthttp transport.
type FastHTTPOption func(*FastHTTP)

// WithFastHTTPClient replaces the underlying fasthttp client.
func WithFastHTTPClient(c *fasthttp.Client) FastHTTPOption {
	return func(t *FastHTTP) {
		t.client = c
	}
}

// WithFastHTTPLogger sets the transport logger.
func WithFastHTTPLogger(logger *zap.Logger) FastHTTPOption {
	return func(t *FastHTTP) {
		t.logger = logger
	}
}

// NewFastHTTP creates the fasthttp-backed transport.
func NewFastHTTP(options ...FastHTTPOption) *FastHTTP {
	t := &FastHTTP{
		client: &fasthttp.Client{
			Name: UserAgentBase + "/" + Version,
		},
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Execute implements interfaces.Transport.
func (t *FastHTTP) Execute(ctx context.Context, req *request.Request, opts *interfaces.Options) (*interfaces.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.Header.SetMethod(req.Method)
	freq.SetRequestURI(req.URL)
	for name, values := range req.Headers {
		for _, v := range values {
			freq.Header.Add(name, v)
		}
	}
	if len(req.Body) > 0 {
		freq.SetBody(req.Body)
	}

	t.logger.Debug("executing request",
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	deadline, hasDeadline := ctx.Deadline()
	if opts != nil && opts.ReadTimeout > 0 {
		optDeadline := time.Now().Add(opts.ReadTimeout)
		if !hasDeadline || optDeadline.Before(deadline) {
			deadline, hasDeadline = optDeadline, true
		}
	}

	var err error
	switch {
	case opts != nil && opts.FollowRedirects:
		err = t.client.DoRedirects(freq, fresp, fasthttpMaxRedirects)
	case hasDeadline:
		err = t.client.DoDeadline(freq, fresp, deadline)
	default:
		err = t.client.Do(freq, fresp)
	}
	if err != nil {
		t.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, err
	}

	headers := make(http.Header)
	fresp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})
	status := fresp.StatusCode()
	body := append([]byte(nil), fresp.Body()...)

	return &interfaces.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, fasthttp.StatusMessage(status)),
		Headers:    headers,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}
