package codec

import (
	"net/url"
	"reflect"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

var formValuesType = reflect.TypeOf(url.Values(nil))

// FormEncoder form-urlencodes url.Values bodies (the shape the engine
// hands over for form-bound parameters) and delegates every other body to
// the wrapped encoder.
type FormEncoder struct {
	Delegate interfaces.Encoder
}

// Ensure FormEncoder implements the interface
var _ interfaces.Encoder = (*FormEncoder)(nil)

// NewFormEncoder wraps delegate with form-urlencoded handling. A nil
// delegate falls back to JSON.
func NewFormEncoder(delegate interfaces.Encoder) *FormEncoder {
	if delegate == nil {
		delegate = JSONEncoder{}
	}
	return &FormEncoder{Delegate: delegate}
}

// Encode implements interfaces.Encoder.
func (e *FormEncoder) Encode(value any, bodyType reflect.Type, t *request.RequestTemplate) error {
	if bodyType == formValuesType {
		if form, ok := value.(url.Values); ok {
			t.SetBody([]byte(form.Encode()))
			t.Header("Content-Type", "application/x-www-form-urlencoded; charset="+t.Charset())
			return nil
		}
	}
	return e.Delegate.Encode(value, bodyType, t)
}
