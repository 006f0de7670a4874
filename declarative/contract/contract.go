// Package contract parses an API definition struct into per-operation
// metadata. The default dialect reads struct tags on function-typed
// fields; see the package tests for the full tag surface.
package contract

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
)

// Contract turns a definition struct type into a list of operation
// descriptors, validating binding consistency.
type Contract interface {
	Parse(t reflect.Type) ([]*metadata.MethodMetadata, error)
}

// Error is a build-time contract violation. It is fatal: operations with
// contract errors never execute and are never retried.
type Error struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return "contract violation: " + e.Reason
	}
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Reason)
}

// Errorf builds a contract Error for an operation. op may be empty for
// type-level violations.
func Errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsContractError reports whether err is (or wraps) a contract violation.
func IsContractError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Default is the bundled tag dialect. Expanders registered by name are
// selectable from `expand` tags.
type Default struct {
	expanders map[string]interfaces.Expander
	logger    *zap.Logger
}

// Option configures the default contract.
type Option func(*Default)

// WithExpander registers a named expansion strategy for use in `expand`
// tags.
func WithExpander(name string, e interfaces.Expander) Option {
	return func(c *Default) {
		c.expanders[name] = e
	}
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Default) {
		c.logger = logger
	}
}

// NewDefault returns the default tag-dialect contract.
func NewDefault(opts ...Option) *Default {
	c := &Default{
		expanders: make(map[string]interfaces.Expander),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse walks the definition struct and returns one descriptor per
// function field, embedded-struct operations first. Shadowed operations
// (same configKey from an embedded struct and the outer struct) resolve
// to the outer one only when its return type is assignable to the
// embedded one; otherwise the first parse wins and a warning is logged.
func (c *Default) Parse(t reflect.Type) ([]*metadata.MethodMetadata, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, Errorf("", "definition target must be a struct, got %v", t)
	}
	if strings.Contains(t.Name(), "[") {
		return nil, Errorf(t.Name(), "parameterized definition structs are not supported")
	}

	classHeaders, err := c.collectClassHeaders(t)
	if err != nil {
		return nil, err
	}

	ops, err := c.collectOperations(t, t.Name(), nil, classHeaders)
	if err != nil {
		return nil, err
	}

	var merged []*metadata.MethodMetadata
	byKey := make(map[string]int)
	for _, op := range ops {
		j, seen := byKey[op.ConfigKey]
		if !seen {
			byKey[op.ConfigKey] = len(merged)
			merged = append(merged, op)
			continue
		}
		prev := merged[j]
		if returnAssignable(op.ReturnType, prev.ReturnType) {
			merged[j] = op
			continue
		}
		c.logger.Warn("incompatible covariant return type; keeping first declaration",
			zap.String("config_key", op.ConfigKey))
	}
	return merged, nil
}

// returnAssignable reports whether an overriding return type may replace
// the overridden one: identical, or assignable to it.
func returnAssignable(override, base reflect.Type) bool {
	if override == base {
		return true
	}
	if override == nil || base == nil {
		return false
	}
	return override.AssignableTo(base)
}

// collectClassHeaders gathers class-level header items: the embedded
// struct's first, then this struct's own, which override per name.
func (c *Default) collectClassHeaders(t reflect.Type) ([]headerItem, error) {
	var inherited []headerItem
	embedded := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || f.Type.Kind() != reflect.Struct {
			continue
		}
		embedded++
		if embedded > 1 {
			return nil, Errorf(t.Name(), "at most one embedded definition struct is allowed")
		}
		if strings.Contains(f.Type.Name(), "[") {
			return nil, Errorf(t.Name(), "parameterized definition structs are not supported")
		}
		sub, err := c.collectClassHeaders(f.Type)
		if err != nil {
			return nil, err
		}
		inherited = sub
	}

	var own []headerItem
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name != "_" {
			continue
		}
		if tag, ok := f.Tag.Lookup("headers"); ok {
			items, err := parseHeaderItems(t.Name(), tag)
			if err != nil {
				return nil, err
			}
			own = append(own, items...)
		}
	}
	return mergeHeaderItems(inherited, own), nil
}

// collectOperations parses function fields, embedded struct first, so
// outer declarations can override inherited ones.
func (c *Default) collectOperations(t reflect.Type, rootName string, path []int, classHeaders []headerItem) ([]*metadata.MethodMetadata, error) {
	var ops []*metadata.MethodMetadata
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			sub, err := c.collectOperations(f.Type, rootName, append(append([]int(nil), path...), i), classHeaders)
			if err != nil {
				return nil, err
			}
			ops = append(ops, sub...)
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || f.Name == "_" || f.Type.Kind() != reflect.Func {
			continue
		}
		md, err := c.parseOperation(rootName, f, append(append([]int(nil), path...), i), classHeaders)
		if err != nil {
			return nil, err
		}
		ops = append(ops, md)
	}
	return ops, nil
}
