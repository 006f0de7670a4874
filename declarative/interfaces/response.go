package interfaces

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

// Response is the transport's view of an HTTP response. The body is a
// stream owned by whoever invoked the transport; the engine releases it on
// every exit path unless the operation's declared result type is *Response,
// in which case the caller owns it.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       io.ReadCloser

	// Request is a read-only handle to the frozen request that produced
	// this response.
	Request *request.Request
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports whether the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r != nil && r.StatusCode >= 400
}

// Header returns a header value by key (case-insensitive).
func (r *Response) Header(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// Charset returns the charset declared by the Content-Type header, or
// "utf-8" when absent or unparseable.
func (r *Response) Charset() string {
	if ct := r.Header("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if cs, ok := params["charset"]; ok {
				return strings.ToLower(cs)
			}
		}
	}
	return "utf-8"
}

// ReadBody reads the body to completion and replaces it with an in-memory
// copy, so interceptors and decoders can each read it in full.
func (r *Response) ReadBody() ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	closeErr := r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	if closeErr != nil {
		return data, closeErr
	}
	return data, nil
}

// Close drains and releases the body. Safe on a nil response and safe to
// call more than once.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, r.Body)
	err := r.Body.Close()
	r.Body = nil
	return err
}
