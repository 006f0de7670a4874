package client

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

var (
	formValuesType = reflect.TypeOf(url.Values(nil))
	anySliceType   = reflect.TypeOf([]any(nil))
)

// identityExpander is the default string-conversion strategy.
type identityExpander struct{}

func (identityExpander) Expand(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprintf("%v", value), nil
}

// templateResolver binds invocation arguments into a fresh clone of the
// operation's skeleton template.
type templateResolver struct {
	target          *Target
	md              *metadata.MethodMetadata
	encoder         interfaces.Encoder
	queryMapEncoder interfaces.QueryMapEncoder
}

// Resolve produces the per-invocation template: placeholder expansion,
// header/query map merging, URL override and body encoding. After it
// returns, the template holds no unresolved placeholders.
func (r *templateResolver) Resolve(args []any) (*request.RequestTemplate, error) {
	md := r.md
	t := md.Template.Clone()
	t.SetMetadata(md)
	t.SetBoundTarget(r.target)
	if t.Target() == "" {
		t.SetTarget(r.target.BaseURL)
	}

	vars := make(map[string][]string)
	form := url.Values{}
	for idx, names := range md.IndexToName {
		if isNilValue(args[idx]) {
			continue
		}
		values, err := r.expandArgument(idx, args[idx])
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if md.IsForm(name) {
				form[name] = values
			} else {
				vars[name] = values
			}
		}
	}
	t.Resolve(vars)

	if md.QueryMapIndex >= 0 && !isNilValue(args[md.QueryMapIndex]) {
		qm, err := r.queryMapEncoder.Encode(args[md.QueryMapIndex])
		if err != nil {
			return nil, &BindError{ConfigKey: md.ConfigKey, Reason: "query map", Cause: err}
		}
		names := make([]string, 0, len(qm))
		for name := range qm {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			t.AddQuery(name, qm[name]...)
		}
	}

	if md.HeaderMapIndex >= 0 && !isNilValue(args[md.HeaderMapIndex]) {
		if err := r.mergeHeaderMap(t, args[md.HeaderMapIndex]); err != nil {
			return nil, err
		}
	}

	if md.URLIndex >= 0 && !isNilValue(args[md.URLIndex]) {
		if u, ok := args[md.URLIndex].(*url.URL); ok && u != nil {
			t.SetTarget(strings.TrimRight(u.String(), "/"))
		}
	}

	switch {
	case md.BodyIndex >= 0:
		if isNilValue(args[md.BodyIndex]) {
			break
		}
		if err := r.encoder.Encode(args[md.BodyIndex], md.BodyType, t); err != nil {
			return nil, &EncodeError{ConfigKey: md.ConfigKey, Cause: err}
		}
	case len(md.FormParams) > 0:
		if err := r.encoder.Encode(form, formValuesType, t); err != nil {
			return nil, &EncodeError{ConfigKey: md.ConfigKey, Cause: err}
		}
	case md.AlwaysEncodeBody:
		composite := r.bindableArgs(args)
		if err := r.encoder.Encode(composite, anySliceType, t); err != nil {
			return nil, &EncodeError{ConfigKey: md.ConfigKey, Cause: err}
		}
	}
	return t, nil
}

// expandArgument renders one argument into its string values: collections
// expand element-wise (nil elements drop), scalars expand to one value.
func (r *templateResolver) expandArgument(idx int, value any) ([]string, error) {
	exp := r.md.Expander(idx)
	if exp == nil {
		exp = identityExpander{}
	}

	v := reflect.ValueOf(value)
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type() != reflect.TypeOf([]byte(nil)) {
		values := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i).Interface()
			if isNilValue(elem) {
				continue
			}
			s, err := exp.Expand(elem)
			if err != nil {
				return nil, &BindError{ConfigKey: r.md.ConfigKey, Reason: fmt.Sprintf("expanding parameter %d", idx), Cause: err}
			}
			values = append(values, s)
		}
		return values, nil
	}

	s, err := exp.Expand(value)
	if err != nil {
		return nil, &BindError{ConfigKey: r.md.ConfigKey, Reason: fmt.Sprintf("expanding parameter %d", idx), Cause: err}
	}
	return []string{s}, nil
}

// mergeHeaderMap folds a string-keyed map argument into the template
// headers, replacing existing values per name.
func (r *templateResolver) mergeHeaderMap(t *request.RequestTemplate, value any) error {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return &BindError{ConfigKey: r.md.ConfigKey, Reason: fmt.Sprintf("header map must be a string-keyed map, got %v", v.Type())}
	}
	exp := identityExpander{}
	for _, key := range v.MapKeys() {
		elem := v.MapIndex(key)
		for elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}
		if elem.Kind() == reflect.Slice && elem.Type().Elem().Kind() == reflect.String {
			values := make([]string, elem.Len())
			for i := 0; i < elem.Len(); i++ {
				values[i] = elem.Index(i).String()
			}
			t.Header(key.String(), values...)
			continue
		}
		s, err := exp.Expand(elem.Interface())
		if err != nil {
			return &BindError{ConfigKey: r.md.ConfigKey, Reason: "header map", Cause: err}
		}
		t.Header(key.String(), s)
	}
	return nil
}

// bindableArgs filters out the pipeline-consumed parameters for composite
// body encoding.
func (r *templateResolver) bindableArgs(args []any) []any {
	var out []any
	for i, a := range args {
		if i == r.md.ContextIndex || i == r.md.OptionsIndex || i == r.md.URLIndex {
			continue
		}
		out = append(out, a)
	}
	return out
}

// isNilValue reports whether v is nil or a nil pointer/map/slice/
// interface/function/channel.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
