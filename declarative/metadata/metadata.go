// Package metadata holds the immutable per-operation descriptor produced
// by contract parsing and consumed by the invocation pipeline.
package metadata

import (
	"reflect"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

// MethodMetadata describes one bound operation. It is built once by the
// contract and never mutated afterwards; the Template field is a skeleton
// that invocations clone.
type MethodMetadata struct {
	// ConfigKey is the canonical StructName#Field(ArgType,...) identity of
	// the operation within its target.
	ConfigKey string

	// FieldName and FieldIndex locate the function field this operation
	// was parsed from, so the engine can install its implementation.
	FieldName  string
	FieldIndex []int

	// ReturnType is the declared result type; nil for error-only
	// (void) operations.
	ReturnType reflect.Type

	// Template is the skeleton request template: verb, URI template,
	// static headers, optional literal body or body template.
	Template *request.RequestTemplate

	// IndexToName maps a parameter position to the placeholder names it
	// feeds. A single parameter may populate several placeholders.
	IndexToName map[int][]string

	// IndexToExpander maps a parameter position to its string-expansion
	// strategy. Positions without an entry use the identity expander.
	IndexToExpander map[int]interfaces.Expander

	// FormParams lists bound names not referenced by the URI, headers or
	// body template, in declaration order. They are form-encoded at
	// request time.
	FormParams []string

	// BodyIndex is the position of the body parameter, or -1. BodyType is
	// its declared type.
	BodyIndex int
	BodyType  reflect.Type

	// URLIndex is the position of a *url.URL parameter overriding the
	// target base URL, or -1.
	URLIndex int

	// HeaderMapIndex and QueryMapIndex are positions of string-keyed map
	// parameters folded into headers/query at request time, or -1.
	HeaderMapIndex int
	QueryMapIndex  int

	// ContextIndex is the position of a context.Context parameter, or -1.
	ContextIndex int

	// OptionsIndex is the position of a *interfaces.Options parameter
	// overriding the engine's transport options, or -1.
	OptionsIndex int

	// AlwaysEncodeBody routes even no-body invocations through the
	// encoder, over the full bindable-argument list.
	AlwaysEncodeBody bool

	// Ignored operations never produce a request; invoking one fails.
	Ignored bool

	// NumParams is the declared parameter count.
	NumParams int
}

// New returns an empty descriptor with all positional indices unset.
func New() *MethodMetadata {
	return &MethodMetadata{
		Template:        request.New(),
		IndexToName:     make(map[int][]string),
		IndexToExpander: make(map[int]interfaces.Expander),
		BodyIndex:       -1,
		URLIndex:        -1,
		HeaderMapIndex:  -1,
		QueryMapIndex:   -1,
		ContextIndex:    -1,
		OptionsIndex:    -1,
	}
}

// Expander returns the expansion strategy for a parameter position, or nil
// when the identity expander applies.
func (md *MethodMetadata) Expander(idx int) interfaces.Expander {
	return md.IndexToExpander[idx]
}

// IsForm reports whether a bound name is a form field rather than a
// template placeholder.
func (md *MethodMetadata) IsForm(name string) bool {
	for _, f := range md.FormParams {
		if f == name {
			return true
		}
	}
	return false
}
