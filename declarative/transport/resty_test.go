package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

func setupResty(t *testing.T, options ...RestyOption) *Resty {
	t.Helper()
	tr := NewResty(options...)
	httpmock.ActivateNonDefault(tr.Client().Client())
	t.Cleanup(httpmock.DeactivateAndReset)
	return tr
}

func frozen(t *testing.T, method, uri string, body []byte) *request.Request {
	t.Helper()
	tmpl := request.New().SetMethod(method).SetTarget("http://h").SetURI(uri)
	if body != nil {
		tmpl.SetBody(body)
	}
	tmpl.Header("X-Probe", "1")
	req, err := tmpl.Request()
	require.NoError(t, err)
	return req
}

func TestResty_ExecuteGET(t *testing.T) {
	tr := setupResty(t)

	var captured *http.Request
	httpmock.RegisterResponder("GET", "http://h/ping", func(req *http.Request) (*http.Response, error) {
		captured = req
		resp := httpmock.NewStringResponse(200, "pong")
		resp.Header.Set("Content-Type", "text/plain")
		return resp, nil
	})

	resp, err := tr.Execute(context.Background(), frozen(t, "GET", "/ping", nil), interfaces.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	body, err := resp.ReadBody()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	require.NotNil(t, captured)
	assert.Equal(t, "1", captured.Header.Get("X-Probe"))
}

func TestResty_ExecutePOSTBody(t *testing.T) {
	tr := setupResty(t)

	httpmock.RegisterResponder("POST", "http://h/echo", func(req *http.Request) (*http.Response, error) {
		return httpmock.NewStringResponse(201, "created"), nil
	})

	resp, err := tr.Execute(context.Background(), frozen(t, "POST", "/echo", []byte(`{"a":1}`)), nil)
	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 201, resp.StatusCode)
}

func TestResty_ErrorStatusIsNotTransportError(t *testing.T) {
	tr := setupResty(t)

	httpmock.RegisterResponder("GET", "http://h/ping",
		httpmock.NewStringResponder(503, "unavailable"))

	resp, err := tr.Execute(context.Background(), frozen(t, "GET", "/ping", nil), nil)
	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 503, resp.StatusCode)
	assert.True(t, resp.IsError())
}

func TestResty_ReadTimeoutCancelsRequest(t *testing.T) {
	tr := setupResty(t)

	httpmock.RegisterResponder("GET", "http://h/slow", func(req *http.Request) (*http.Response, error) {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(2 * time.Second):
			return httpmock.NewStringResponse(200, "late"), nil
		}
	})

	opts := &interfaces.Options{ReadTimeout: 50 * time.Millisecond}
	_, err := tr.Execute(context.Background(), frozen(t, "GET", "/slow", nil), opts)
	require.Error(t, err)
}

func TestResty_ResponseCarriesRequestHandle(t *testing.T) {
	tr := setupResty(t)

	httpmock.RegisterResponder("GET", "http://h/ping",
		httpmock.NewStringResponder(200, "pong"))

	req := frozen(t, "GET", "/ping", nil)
	resp, err := tr.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	defer resp.Close()
	assert.Same(t, req, resp.Request)
}
