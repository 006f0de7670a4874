package metadata

import (
	"fmt"
	"reflect"
	"strings"
)

// ConfigKey renders the canonical operation identity used for routing and
// logs: StructName#field(ArgType,ArgType). Zero-arg operations render as
// Name#field(). The grammar carries no whitespace.
func ConfigKey(typeName, fieldName string, paramTypes []reflect.Type) string {
	names := make([]string, len(paramTypes))
	for i, t := range paramTypes {
		names[i] = TypeName(t)
	}
	return fmt.Sprintf("%s#%s(%s)", typeName, fieldName, strings.Join(names, ","))
}

// TypeName renders the unqualified name of a type: named types use their
// simple name, composites recurse over element types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	if name := t.Name(); name != "" {
		return name
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), TypeName(t.Elem()))
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", TypeName(t.Key()), TypeName(t.Elem()))
	case reflect.Interface:
		return "any"
	}
	return t.String()
}
