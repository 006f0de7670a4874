package codec

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

func TestFormEncoder_EncodesValues(t *testing.T) {
	tmpl := request.New().SetMethod("POST").SetURI("/login")

	form := url.Values{"user": {"bob"}, "pass": {"hunter2"}}
	err := NewFormEncoder(nil).Encode(form, reflect.TypeOf(url.Values(nil)), tmpl)
	require.NoError(t, err)

	assert.Equal(t, "pass=hunter2&user=bob", string(tmpl.Body()))
	assert.Equal(t, []string{"application/x-www-form-urlencoded; charset=utf-8"},
		tmpl.Headers().Get("Content-Type"))
}

func TestFormEncoder_DelegatesOtherBodies(t *testing.T) {
	tmpl := request.New().SetMethod("POST").SetURI("/commands")

	err := NewFormEncoder(JSONEncoder{}).Encode(brewCommand{Name: "install"}, reflect.TypeOf(brewCommand{}), tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"install"}`, string(tmpl.Body()))
	assert.Equal(t, []string{"application/json"}, tmpl.Headers().Get("Content-Type"))
}
