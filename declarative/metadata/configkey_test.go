package metadata

import (
	"context"
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type widget struct{}

func TestConfigKey_Grammar(t *testing.T) {
	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()

	tests := []struct {
		name   string
		field  string
		params []reflect.Type
		want   string
	}{
		{
			name:   "zero arg",
			field:  "List",
			params: nil,
			want:   "API#List()",
		},
		{
			name:   "context and string",
			field:  "Get",
			params: []reflect.Type{ctxType, reflect.TypeOf("")},
			want:   "API#Get(Context,string)",
		},
		{
			name:   "pointer and slice",
			field:  "Create",
			params: []reflect.Type{reflect.TypeOf(&widget{}), reflect.TypeOf([]string(nil))},
			want:   "API#Create(*widget,[]string)",
		},
		{
			name:   "map and url",
			field:  "Search",
			params: []reflect.Type{reflect.TypeOf(map[string]string(nil)), reflect.TypeOf(&url.URL{})},
			want:   "API#Search(map[string]string,*URL)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfigKey("API", tt.field, tt.params)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, " ")
		})
	}
}

func TestTypeName_AnyParameter(t *testing.T) {
	anyType := reflect.TypeOf((*any)(nil)).Elem()
	assert.Equal(t, "any", TypeName(anyType))
}

func TestNew_IndicesUnset(t *testing.T) {
	md := New()
	assert.Equal(t, -1, md.BodyIndex)
	assert.Equal(t, -1, md.URLIndex)
	assert.Equal(t, -1, md.HeaderMapIndex)
	assert.Equal(t, -1, md.QueryMapIndex)
	assert.Equal(t, -1, md.ContextIndex)
	assert.Equal(t, -1, md.OptionsIndex)
	assert.NotNil(t, md.Template)
}
