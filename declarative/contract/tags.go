package contract

import (
	"context"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

var (
	requestLinePattern = regexp.MustCompile(`^([A-Z]+)[ ]*(.*)$`)

	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	optionsType = reflect.TypeOf((*interfaces.Options)(nil))
	urlType     = reflect.TypeOf((*url.URL)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type headerItem struct {
	name  string
	value string
}

// parseHeaderItems parses a `headers` tag: |-separated "Name: value"
// items, value left-trimmed after the colon. Empty names and values are
// rejected.
func parseHeaderItems(op, tag string) ([]headerItem, error) {
	var items []headerItem
	for _, raw := range strings.Split(tag, "|") {
		name, rest, found := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, Errorf(op, "malformed header item %q, want \"Name: value\"", raw)
		}
		value := strings.TrimLeft(rest, " ")
		if value == "" {
			return nil, Errorf(op, "header %q has an empty value", name)
		}
		items = append(items, headerItem{name: name, value: value})
	}
	return items, nil
}

// mergeHeaderItems overlays level items: any name present in over fully
// replaces that name in base, other base entries keep their order.
func mergeHeaderItems(base, over []headerItem) []headerItem {
	if len(over) == 0 {
		return base
	}
	overridden := make(map[string]bool, len(over))
	for _, it := range over {
		overridden[strings.ToLower(it.name)] = true
	}
	var merged []headerItem
	for _, it := range base {
		if !overridden[strings.ToLower(it.name)] {
			merged = append(merged, it)
		}
	}
	return append(merged, over...)
}

// applyHeaderItems writes items into the template, appending repeated
// names as additional values.
func applyHeaderItems(t *request.RequestTemplate, items []headerItem) {
	for _, it := range items {
		t.AddHeader(it.name, it.value)
	}
}

// parseOperation builds the descriptor for one function field.
func (c *Default) parseOperation(rootName string, f reflect.StructField, fieldIndex []int, classHeaders []headerItem) (*metadata.MethodMetadata, error) {
	ft := f.Type
	paramTypes := make([]reflect.Type, ft.NumIn())
	for i := range paramTypes {
		paramTypes[i] = ft.In(i)
	}

	md := metadata.New()
	md.ConfigKey = metadata.ConfigKey(rootName, f.Name, paramTypes)
	md.FieldName = f.Name
	md.FieldIndex = fieldIndex
	md.NumParams = ft.NumIn()

	if ft.IsVariadic() {
		return nil, Errorf(md.ConfigKey, "variadic operations are not supported")
	}
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) != errorType {
			return nil, Errorf(md.ConfigKey, "single-result operations must return error")
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, Errorf(md.ConfigKey, "the last result must be error")
		}
		md.ReturnType = ft.Out(0)
	default:
		return nil, Errorf(md.ConfigKey, "operations must return (T, error) or error")
	}

	reqTag, ok := f.Tag.Lookup("request")
	if !ok {
		return nil, Errorf(md.ConfigKey, "missing request tag (no HTTP method)")
	}
	if reqTag == "-" {
		md.Ignored = true
		return md, nil
	}
	m := requestLinePattern.FindStringSubmatch(reqTag)
	if m == nil || m[1] == "" {
		return nil, Errorf(md.ConfigKey, "malformed request line %q", reqTag)
	}
	md.Template.SetMethod(m[1]).SetURI(m[2])

	if v, ok := f.Tag.Lookup("collection_format"); ok {
		cf, err := request.ParseCollectionFormat(v)
		if err != nil {
			return nil, Errorf(md.ConfigKey, "%v", err)
		}
		md.Template.SetCollectionFormat(cf)
	}
	if v, ok := f.Tag.Lookup("decode_slash"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, Errorf(md.ConfigKey, "malformed decode_slash tag %q", v)
		}
		md.Template.SetDecodeSlash(b)
	}
	if v, ok := f.Tag.Lookup("encode_body"); ok {
		if v != "always" {
			return nil, Errorf(md.ConfigKey, "malformed encode_body tag %q, want \"always\"", v)
		}
		md.AlwaysEncodeBody = true
	}

	methodHeaders, err := c.methodHeaders(md.ConfigKey, f.Tag)
	if err != nil {
		return nil, err
	}
	applyHeaderItems(md.Template, mergeHeaderItems(classHeaders, methodHeaders))

	if body, ok := f.Tag.Lookup("body"); ok {
		if strings.Contains(body, "{") {
			md.Template.SetBodyTemplate(body)
		} else {
			md.Template.SetBody([]byte(body))
		}
	}

	bindable, err := classifyParams(md, paramTypes)
	if err != nil {
		return nil, err
	}
	if err := c.bindParams(md, f.Tag, bindable, paramTypes); err != nil {
		return nil, err
	}
	return md, nil
}

func (c *Default) methodHeaders(op string, tag reflect.StructTag) ([]headerItem, error) {
	raw, ok := tag.Lookup("headers")
	if !ok {
		return nil, nil
	}
	return parseHeaderItems(op, raw)
}

// classifyParams routes parameters by type: context, options and URL
// overrides are consumed by the pipeline itself; everything else is
// bindable through tags.
func classifyParams(md *metadata.MethodMetadata, paramTypes []reflect.Type) ([]int, error) {
	var bindable []int
	for i, pt := range paramTypes {
		switch pt {
		case ctxType:
			if md.ContextIndex >= 0 {
				return nil, Errorf(md.ConfigKey, "multiple context parameters")
			}
			md.ContextIndex = i
		case optionsType:
			if md.OptionsIndex >= 0 {
				return nil, Errorf(md.ConfigKey, "multiple options parameters")
			}
			md.OptionsIndex = i
		case urlType:
			if md.URLIndex >= 0 {
				return nil, Errorf(md.ConfigKey, "multiple URL override parameters")
			}
			md.URLIndex = i
		default:
			bindable = append(bindable, i)
		}
	}
	return bindable, nil
}

// bindParams applies the parameter-level tags in declaration order and
// derives form fields, map slots and the body parameter.
func (c *Default) bindParams(md *metadata.MethodMetadata, tag reflect.StructTag, bindable []int, paramTypes []reflect.Type) error {
	consumed := make(map[int]bool)
	nameToIndex := make(map[string]int)

	if raw, ok := tag.Lookup("params"); ok && raw != "" {
		names := strings.Split(raw, ",")
		if len(names) > len(bindable) {
			return Errorf(md.ConfigKey, "params tag names %d parameters, only %d are bindable", len(names), len(bindable))
		}
		for pos, name := range names {
			if name == "" {
				continue
			}
			if _, dup := nameToIndex[name]; dup {
				return Errorf(md.ConfigKey, "placeholder {%s} is bound by more than one parameter", name)
			}
			idx := bindable[pos]
			nameToIndex[name] = idx
			md.IndexToName[idx] = append(md.IndexToName[idx], name)
			consumed[idx] = true
		}
	}

	if raw, ok := tag.Lookup("expand"); ok && raw != "" {
		for _, entry := range strings.Split(raw, ",") {
			posStr, name, found := strings.Cut(entry, "=")
			if !found {
				return Errorf(md.ConfigKey, "malformed expand entry %q, want \"pos=name\"", entry)
			}
			pos, err := strconv.Atoi(posStr)
			if err != nil || pos < 0 || pos >= len(bindable) {
				return Errorf(md.ConfigKey, "expand position %q out of range", posStr)
			}
			exp, ok := c.expanders[name]
			if !ok {
				return Errorf(md.ConfigKey, "unknown expander %q", name)
			}
			md.IndexToExpander[bindable[pos]] = exp
		}
	}

	bindMap := func(tagName string) (int, error) {
		raw, ok := tag.Lookup(tagName)
		if !ok {
			return -1, nil
		}
		pos, err := strconv.Atoi(raw)
		if err != nil || pos < 0 || pos >= len(bindable) {
			return -1, Errorf(md.ConfigKey, "%s position %q out of range", tagName, raw)
		}
		idx := bindable[pos]
		if consumed[idx] {
			return -1, Errorf(md.ConfigKey, "%s parameter is already bound", tagName)
		}
		pt := paramTypes[idx]
		if pt.Kind() != reflect.Map || pt.Key().Kind() != reflect.String {
			return -1, Errorf(md.ConfigKey, "%s parameter must be a string-keyed map, got %v", tagName, pt)
		}
		consumed[idx] = true
		return idx, nil
	}
	var err error
	if md.QueryMapIndex, err = bindMap("querymap"); err != nil {
		return err
	}
	if md.HeaderMapIndex, err = bindMap("headermap"); err != nil {
		return err
	}

	refs := make(map[string]bool)
	for _, n := range md.Template.Placeholders() {
		refs[n] = true
	}
	for _, idx := range bindable {
		for _, name := range md.IndexToName[idx] {
			if !refs[name] {
				md.FormParams = append(md.FormParams, name)
			}
		}
	}
	for name := range refs {
		if _, ok := nameToIndex[name]; !ok {
			return Errorf(md.ConfigKey, "placeholder {%s} has no parameter binding", name)
		}
	}

	var bodyCandidates []int
	for _, idx := range bindable {
		if !consumed[idx] {
			bodyCandidates = append(bodyCandidates, idx)
		}
	}
	if len(bodyCandidates) > 1 {
		return Errorf(md.ConfigKey, "too many body parameters")
	}
	if len(bodyCandidates) == 1 {
		if len(md.FormParams) > 0 {
			return Errorf(md.ConfigKey, "cannot mix form parameters with body parameter")
		}
		if len(md.Template.Body()) > 0 || md.Template.BodyTemplate() != "" {
			return Errorf(md.ConfigKey, "operation declares both a body tag and a body parameter")
		}
		md.BodyIndex = bodyCandidates[0]
		md.BodyType = paramTypes[md.BodyIndex]
	}
	return nil
}
