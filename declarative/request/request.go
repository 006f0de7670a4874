package request

import (
	"fmt"
	"net/http"
)

// Request is the frozen, post-interceptor snapshot handed to the
// transport. It is immutable; the Template handle exists so interceptors,
// codecs and transports can inspect binding metadata.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte

	// Template is a read-only handle to the template this request was
	// frozen from.
	Template *RequestTemplate
}

// Charset returns the body charset declared on the originating template.
func (r *Request) Charset() string {
	if r.Template == nil {
		return "utf-8"
	}
	return r.Template.Charset()
}

// String renders the request line, for logs and diagnostics.
func (r *Request) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}
