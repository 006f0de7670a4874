package client

import (
	"context"
	"reflect"

	"github.com/deploymenttheory/go-declarative-http/declarative/contract"
	"github.com/deploymenttheory/go-declarative-http/declarative/metadata"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// install builds the operation's handler and sets a generated
// implementation into its function field. This is the table-driven
// replacement for dynamic proxies: the descriptor locates the field, the
// handler carries the pipeline, MakeFunc bridges the two.
func (e *Engine) install(root reflect.Value, tgt *Target, md *metadata.MethodMetadata) error {
	field := root.FieldByIndex(md.FieldIndex)
	if !field.IsValid() || !field.CanSet() || field.Kind() != reflect.Func {
		return contract.Errorf(md.ConfigKey, "cannot install operation into field %s", md.FieldName)
	}
	handler := e.newMethodHandler(tgt, md)
	ft := field.Type()

	field.Set(reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if md.ContextIndex >= 0 {
			if c, ok := in[md.ContextIndex].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
		}
		args := make([]any, len(in))
		for i := range in {
			args[i] = in[i].Interface()
		}
		result, err := handler.Invoke(ctx, args)
		return results(ft, md.ConfigKey, result, err)
	}))
	return nil
}

// results shapes the handler outcome into the field's return values.
func results(ft reflect.Type, configKey string, result any, err error) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	errVal := reflect.New(errType).Elem()

	if ft.NumOut() == 2 {
		rt := ft.Out(0)
		rv := reflect.New(rt).Elem()
		if result != nil {
			v := reflect.ValueOf(result)
			if v.Type().AssignableTo(rt) {
				rv.Set(v)
			} else if err == nil {
				err = &DecodeError{ConfigKey: configKey,
					Cause: &typeMismatch{got: v.Type(), want: rt}}
			}
		}
		out[0] = rv
	}
	if err != nil {
		errVal.Set(reflect.ValueOf(err))
	}
	out[ft.NumOut()-1] = errVal
	return out
}

type typeMismatch struct {
	got, want reflect.Type
}

func (e *typeMismatch) Error() string {
	return "decoded value of type " + e.got.String() + " is not assignable to " + e.want.String()
}
