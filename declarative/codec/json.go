// Package codec bundles the default body codecs and the query-map
// encoder. All of them are safe for concurrent use.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

var byteSliceType = reflect.TypeOf([]byte(nil))

// JSONEncoder marshals body values to JSON and sets the Content-Type
// header when the template does not carry one. A []byte body declared as
// []byte is written unchanged and gets no Content-Type.
type JSONEncoder struct{}

// Ensure JSONEncoder implements the interface
var _ interfaces.Encoder = (*JSONEncoder)(nil)

// Encode implements interfaces.Encoder.
func (JSONEncoder) Encode(value any, bodyType reflect.Type, t *request.RequestTemplate) error {
	if bodyType == byteSliceType {
		if data, ok := value.([]byte); ok {
			t.SetBody(data)
			return nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %v body: %w", bodyType, err)
	}
	t.SetBody(data)
	if len(t.Headers().Get("Content-Type")) == 0 {
		t.Header("Content-Type", "application/json")
	}
	return nil
}

// JSONDecoder unmarshals response bodies into the declared result type.
// []byte results receive the raw body, string results its text.
type JSONDecoder struct{}

// Ensure JSONDecoder implements the interface
var _ interfaces.Decoder = (*JSONDecoder)(nil)

// Decode implements interfaces.Decoder.
func (JSONDecoder) Decode(resp *interfaces.Response, resultType reflect.Type) (any, error) {
	data, err := resp.ReadBody()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	switch {
	case resultType == byteSliceType:
		return data, nil
	case resultType.Kind() == reflect.String:
		return reflect.ValueOf(string(data)).Convert(resultType).Interface(), nil
	case len(data) == 0:
		return reflect.Zero(resultType).Interface(), nil
	}
	out := reflect.New(resultType)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return nil, fmt.Errorf("decoding %v body: %w", resultType, err)
	}
	return out.Elem().Interface(), nil
}
