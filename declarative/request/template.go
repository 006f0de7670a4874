// Package request holds the mutable request template, its frozen form and
// the placeholder-expansion machinery. A template is built once per
// operation by the contract, then cloned and resolved per invocation.
package request

import (
	"fmt"
	"net/url"
	"strings"
)

// RequestTemplate is the mutable builder for one outgoing request: method,
// URI template, ordered query parameters, ordered case-insensitive headers
// and body. Templates are single-invocation scoped after cloning; the
// skeleton held by the operation metadata is never mutated.
type RequestTemplate struct {
	method           string
	target           string
	path             string
	queries          *Queries
	headers          *Headers
	body             []byte
	bodyTemplate     string
	charset          string
	decodeSlash      bool
	collectionFormat CollectionFormat

	// read-only back-references for observability
	metadata    any
	boundTarget any
}

// New returns an empty template: utf-8 charset, literal slashes in
// expanded path values, multi collection format.
func New() *RequestTemplate {
	return &RequestTemplate{
		queries:          NewQueries(),
		headers:          NewHeaders(),
		charset:          "utf-8",
		decodeSlash:      true,
		collectionFormat: Multi,
	}
}

// Clone returns a deep copy of the template.
func (t *RequestTemplate) Clone() *RequestTemplate {
	dup := *t
	dup.queries = t.queries.Clone()
	dup.headers = t.headers.Clone()
	dup.body = append([]byte(nil), t.body...)
	return &dup
}

// Method returns the HTTP verb.
func (t *RequestTemplate) Method() string { return t.method }

// SetMethod sets the HTTP verb.
func (t *RequestTemplate) SetMethod(method string) *RequestTemplate {
	t.method = strings.ToUpper(method)
	return t
}

// Target returns the base URL.
func (t *RequestTemplate) Target() string { return t.target }

// SetTarget sets the base URL, trimming any trailing slash.
func (t *RequestTemplate) SetTarget(target string) *RequestTemplate {
	t.target = strings.TrimRight(target, "/")
	return t
}

// Path returns the URI template's path part.
func (t *RequestTemplate) Path() string { return t.path }

// SetURI sets the URI template. A query part after "?" is parsed into the
// template's ordered query parameters; its values may carry placeholders.
func (t *RequestTemplate) SetURI(uri string) *RequestTemplate {
	path := uri
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		path = uri[:i]
		for _, pair := range strings.Split(uri[i+1:], "&") {
			if pair == "" {
				continue
			}
			name, value, _ := strings.Cut(pair, "=")
			t.queries.Add(name, value)
		}
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	t.path = path
	return t
}

// Query replaces the values of a query parameter.
func (t *RequestTemplate) Query(name string, values ...string) *RequestTemplate {
	t.queries.Set(name, values...)
	return t
}

// AddQuery appends values to a query parameter.
func (t *RequestTemplate) AddQuery(name string, values ...string) *RequestTemplate {
	t.queries.Add(name, values...)
	return t
}

// Queries exposes the ordered query multimap.
func (t *RequestTemplate) Queries() *Queries { return t.queries }

// Header replaces the values of a header.
func (t *RequestTemplate) Header(name string, values ...string) *RequestTemplate {
	t.headers.Set(name, values...)
	return t
}

// AddHeader appends values to a header.
func (t *RequestTemplate) AddHeader(name string, values ...string) *RequestTemplate {
	t.headers.Add(name, values...)
	return t
}

// Headers exposes the ordered header multimap.
func (t *RequestTemplate) Headers() *Headers { return t.headers }

// Body returns the current body bytes.
func (t *RequestTemplate) Body() []byte { return t.body }

// SetBody sets literal body bytes and clears any body template.
func (t *RequestTemplate) SetBody(body []byte) *RequestTemplate {
	t.body = body
	t.bodyTemplate = ""
	return t
}

// BodyTemplate returns the body template string, if any.
func (t *RequestTemplate) BodyTemplate() string { return t.bodyTemplate }

// SetBodyTemplate sets a body template whose placeholders are expanded per
// invocation.
func (t *RequestTemplate) SetBodyTemplate(tmpl string) *RequestTemplate {
	t.bodyTemplate = tmpl
	t.body = nil
	return t
}

// Charset returns the body charset.
func (t *RequestTemplate) Charset() string { return t.charset }

// SetCharset sets the body charset.
func (t *RequestTemplate) SetCharset(cs string) *RequestTemplate {
	t.charset = cs
	return t
}

// DecodeSlash reports whether slashes in expanded path values stay literal.
func (t *RequestTemplate) DecodeSlash() bool { return t.decodeSlash }

// SetDecodeSlash controls whether "/" in expanded path values stays
// literal (true) or is encoded as %2F (false).
func (t *RequestTemplate) SetDecodeSlash(v bool) *RequestTemplate {
	t.decodeSlash = v
	return t
}

// CollectionFormat returns the template's collection format.
func (t *RequestTemplate) CollectionFormat() CollectionFormat { return t.collectionFormat }

// SetCollectionFormat sets how multi-valued arguments are rendered.
func (t *RequestTemplate) SetCollectionFormat(f CollectionFormat) *RequestTemplate {
	t.collectionFormat = f
	return t
}

// Metadata returns the owning operation descriptor, when attached.
func (t *RequestTemplate) Metadata() any { return t.metadata }

// SetMetadata attaches the owning operation descriptor.
func (t *RequestTemplate) SetMetadata(md any) *RequestTemplate {
	t.metadata = md
	return t
}

// BoundTarget returns the originating target, when attached.
func (t *RequestTemplate) BoundTarget() any { return t.boundTarget }

// SetBoundTarget attaches the originating target.
func (t *RequestTemplate) SetBoundTarget(tg any) *RequestTemplate {
	t.boundTarget = tg
	return t
}

// Placeholders returns the distinct placeholder names across the path,
// query values, header values and body template, in order of appearance.
func (t *RequestTemplate) Placeholders() []string {
	var all []string
	seen := make(map[string]bool)
	collect := func(s string) {
		for _, n := range placeholderNames(s) {
			if !seen[n] {
				seen[n] = true
				all = append(all, n)
			}
		}
	}
	collect(t.path)
	for _, name := range t.queries.Names() {
		for _, v := range t.queries.Get(name) {
			collect(v)
		}
	}
	for _, name := range t.headers.Names() {
		for _, v := range t.headers.Get(name) {
			collect(v)
		}
	}
	collect(t.bodyTemplate)
	return all
}

func (t *RequestTemplate) escapePathValue(v string) string {
	escaped := url.PathEscape(v)
	if t.decodeSlash {
		escaped = strings.ReplaceAll(escaped, "%2F", "/")
	}
	return escaped
}

// Resolve substitutes every placeholder from vars. A name absent from vars
// drops its slot: query and header values that are a bare placeholder are
// removed, path and body slots expand to the empty string. Multi-valued
// vars are rendered per the template's collection format.
func (t *RequestTemplate) Resolve(vars map[string][]string) {
	joined := func(name string) (string, bool) {
		vals, ok := vars[name]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return strings.Join(vals, t.collectionFormat.separator()), true
	}

	t.path = expandString(t.path, func(name string) (string, bool) {
		v, ok := joined(name)
		if !ok {
			return "", false
		}
		return t.escapePathValue(v), true
	})

	resolved := NewQueries()
	for _, name := range t.queries.Names() {
		for _, raw := range t.queries.Get(name) {
			switch slot, bare := barePlaceholder(raw); {
			case bare:
				if vals, ok := vars[slot]; ok && len(vals) > 0 {
					resolved.Add(name, t.collectionFormat.Join(vals)...)
				}
			case hasPlaceholder(raw):
				resolved.Add(name, expandString(raw, joined))
			default:
				resolved.Add(name, raw)
			}
		}
	}
	t.queries = resolved

	for _, name := range append([]string(nil), t.headers.Names()...) {
		var kept []string
		for _, raw := range t.headers.Get(name) {
			if !hasPlaceholder(raw) {
				kept = append(kept, raw)
				continue
			}
			if slot, bare := barePlaceholder(raw); bare {
				if vals, ok := vars[slot]; ok && len(vals) > 0 {
					kept = append(kept, t.collectionFormat.Join(vals)...)
				}
				continue
			}
			kept = append(kept, expandString(raw, joined))
		}
		if len(kept) == 0 {
			t.headers.Del(name)
		} else {
			t.headers.Set(name, kept...)
		}
	}

	if t.bodyTemplate != "" {
		t.body = []byte(expandString(t.bodyTemplate, joined))
		t.bodyTemplate = ""
	}
}

// Request freezes the template into an immutable Request. It fails when
// the verb is missing or any placeholder survived resolution.
func (t *RequestTemplate) Request() (*Request, error) {
	if t.method == "" {
		return nil, fmt.Errorf("request template has no HTTP method")
	}
	if left := t.Placeholders(); len(left) > 0 {
		return nil, fmt.Errorf("unresolved placeholders %v in request template", left)
	}
	u := t.target + t.path
	if enc := t.queries.Encode(); enc != "" {
		u += "?" + enc
	}
	return &Request{
		Method:   t.method,
		URL:      u,
		Headers:  t.headers.HTTP(),
		Body:     append([]byte(nil), t.body...),
		Template: t,
	}, nil
}
