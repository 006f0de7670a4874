package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
	"github.com/deploymenttheory/go-declarative-http/declarative/transport"
)

type egAPI struct {
	_ struct{} `headers:"Accept: */*"`

	Get func(ctx context.Context, a string) (string, error) `request:"GET /x?a={a}" params:"a"`
}

type reportAPI struct {
	Get func(ctx context.Context, a string) (string, error) `request:"GET /x?a={a}" params:"a"`
}

// Summary plays the role of a default method: it is a plain method on the
// definition struct calling its bound operation.
func (r *reportAPI) Summary() (string, error) {
	return r.Get(context.Background(), "1")
}

type device struct {
	SerialNumber string `json:"serial_number"`
	DeviceType   string `json:"device_type"`
}

type deviceAPI struct {
	Find   func(ctx context.Context, id string) (*device, error)                  `request:"GET /devices/{id}" params:"id"`
	Create func(ctx context.Context, d device) (*device, error)                   `request:"POST /devices"`
	Login  func(ctx context.Context, user, pass string) error                     `request:"POST /login" params:"user,pass"`
	Search func(ctx context.Context, filters map[string]string) ([]device, error) `request:"GET /devices" querymap:"0"`
	Raw    func(ctx context.Context, id string) (*interfaces.Response, error)     `request:"GET /devices/{id}" params:"id"`
	Stale  func(ctx context.Context) error                                        `request:"-"`
}

// setupEngine wires an engine to a resty transport with httpmock active.
func setupEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	tr := transport.NewResty()
	httpmock.ActivateNonDefault(tr.Client().Client())
	t.Cleanup(httpmock.DeactivateAndReset)

	eng, err := NewEngine(append([]Option{
		WithLogger(zap.NewNop()),
		WithTransport(tr),
	}, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestEngine_DefaultHeaderAndGetTemplate(t *testing.T) {
	eng := setupEngine(t)

	var captured *http.Request
	httpmock.RegisterResponder("GET", "http://h/x", func(req *http.Request) (*http.Response, error) {
		captured = req
		return httpmock.NewStringResponse(200, "1"), nil
	})

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	out, err := api.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	require.NotNil(t, captured)
	assert.Equal(t, "http://h/x?a=1", captured.URL.String())
	assert.Equal(t, "*/*", captured.Header.Get("Accept"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestEngine_RetryThenSuccess(t *testing.T) {
	eng := setupEngine(t, WithRetryer(NewRetryer(100*time.Millisecond, time.Second, 3)))

	calls := 0
	httpmock.RegisterResponder("GET", "http://h/x", func(*http.Request) (*http.Response, error) {
		calls++
		if calls <= 2 {
			return httpmock.NewStringResponse(503, "unavailable"), nil
		}
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	start := time.Now()
	out, err := api.Get(context.Background(), "1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
	// first sleep 100ms, second 150ms
	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond)
}

func TestEngine_RetryExhaustionPropagatesRetryable(t *testing.T) {
	eng := setupEngine(t, WithRetryer(NewRetryer(time.Millisecond, time.Millisecond, 2)))

	httpmock.RegisterResponder("GET", "http://h/x",
		httpmock.NewStringResponder(503, "unavailable"))

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	_, err := api.Get(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestEngine_UnwrapRetryErrorsSurfacesCause(t *testing.T) {
	eng := setupEngine(t, WithRetryer(NeverRetry{}), WithUnwrapRetryErrors())

	httpmock.RegisterResponder("GET", "http://h/x",
		httpmock.NewStringResponder(503, `{"message":"down"}`))

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	_, err := api.Get(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, IsRetryable(err))

	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, 503, code)
}

func TestEngine_DefaultMethodGoesThroughPipelineOnce(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("GET", "http://h/x",
		httpmock.NewStringResponder(200, "ok"))

	var api reportAPI
	require.NoError(t, eng.Target(&api, "report", "http://h"))

	out, err := api.Summary()
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestEngine_JSONBodyAndResult(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("POST", "http://h/devices", func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		assert.JSONEq(t, `{"serial_number":"TC6R2DHVHG","device_type":"MacBook Pro"}`, string(body))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		return httpmock.NewStringResponse(201, string(body)), nil
	})

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	created, err := api.Create(context.Background(), device{SerialNumber: "TC6R2DHVHG", DeviceType: "MacBook Pro"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "TC6R2DHVHG", created.SerialNumber)
}

func TestEngine_FormParams(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("POST", "http://h/login", func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		assert.Equal(t, "pass=hunter2&user=bob", string(body))
		assert.Contains(t, req.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		return httpmock.NewStringResponse(204, ""), nil
	})

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	require.NoError(t, api.Login(context.Background(), "bob", "hunter2"))
}

func TestEngine_QueryMap(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("GET", "http://h/devices", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "macs", req.URL.Query().Get("group"))
		return httpmock.NewStringResponse(200, `[{"serial_number":"TC6R2DHVHG"}]`), nil
	})

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	devices, err := api.Search(context.Background(), map[string]string{"group": "macs"})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "TC6R2DHVHG", devices[0].SerialNumber)
}

func TestEngine_Dismiss404ReturnsZeroValue(t *testing.T) {
	eng := setupEngine(t, WithDismiss404())

	httpmock.RegisterResponder("GET", "http://h/devices/missing",
		httpmock.NewStringResponder(404, `{"message":"Not Found"}`))

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	found, err := api.Find(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestEngine_404IsErrorWithoutDismiss(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("GET", "http://h/devices/missing",
		httpmock.NewStringResponder(404, `{"message":"Not Found"}`))

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	_, err := api.Find(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestEngine_ResponseReturnTransfersOwnership(t *testing.T) {
	eng := setupEngine(t)

	httpmock.RegisterResponder("GET", "http://h/devices/TC6R2DHVHG",
		httpmock.NewStringResponder(200, "raw body"))

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	resp, err := api.Raw(context.Background(), "TC6R2DHVHG")
	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, err := resp.ReadBody()
	require.NoError(t, err)
	assert.Equal(t, "raw body", string(body))
}

func TestEngine_IgnoredOperationFailsOnInvocation(t *testing.T) {
	eng := setupEngine(t)

	var api deviceAPI
	require.NoError(t, eng.Target(&api, "devices", "http://h"))

	err := api.Stale(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignored")
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestEngine_RequestInterceptorsRunInOrder(t *testing.T) {
	first := interfaces.RequestInterceptorFunc(func(tmpl *request.RequestTemplate) {
		tmpl.AddHeader("X-Chain", "first")
	})
	second := interfaces.RequestInterceptorFunc(func(tmpl *request.RequestTemplate) {
		tmpl.AddHeader("X-Chain", "second")
	})
	eng := setupEngine(t, WithRequestInterceptor(first), WithRequestInterceptor(second))

	var captured *http.Request
	httpmock.RegisterResponder("GET", "http://h/x", func(req *http.Request) (*http.Response, error) {
		captured = req
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	_, err := api.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"first", "second"}, captured.Header.Values("X-Chain"))
}

func TestEngine_ResponseInterceptorCanReplaceResponse(t *testing.T) {
	rewrite := interfaces.ResponseInterceptorFunc(func(ctx context.Context, ic *interfaces.InvocationContext, next interfaces.Chain) (*interfaces.Response, error) {
		resp, err := next(ctx, ic)
		if err != nil || resp.StatusCode != http.StatusTeapot {
			return resp, err
		}
		resp.Close()
		return &interfaces.Response{
			StatusCode: 200,
			Status:     "200 OK",
			Headers:    make(http.Header),
			Body:       io.NopCloser(strings.NewReader("tea")),
			Request:    resp.Request,
		}, nil
	})
	eng := setupEngine(t, WithResponseInterceptor(rewrite))

	httpmock.RegisterResponder("GET", "http://h/x",
		httpmock.NewStringResponder(http.StatusTeapot, "short and stout"))

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	out, err := api.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "tea", out)
}

type optionsAPI struct {
	Get func(ctx context.Context, opts *interfaces.Options) (string, error) `request:"GET /x"`
}

func TestEngine_PerCallOptionsOverride(t *testing.T) {
	var seen *interfaces.Options
	stub := interfaces.TransportFunc(func(_ context.Context, req *request.Request, opts *interfaces.Options) (*interfaces.Response, error) {
		seen = opts
		return &interfaces.Response{
			StatusCode: 200,
			Status:     "200 OK",
			Headers:    make(http.Header),
			Body:       io.NopCloser(strings.NewReader("ok")),
			Request:    req,
		}, nil
	})

	eng, err := NewEngine(WithLogger(zap.NewNop()), WithTransport(stub))
	require.NoError(t, err)

	var api optionsAPI
	require.NoError(t, eng.Target(&api, "opts", "http://h"))

	// engine defaults apply when the argument is nil
	_, err = api.Get(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, interfaces.DefaultOptions().ReadTimeout, seen.ReadTimeout)

	// a non-nil argument overrides them
	custom := &interfaces.Options{ReadTimeout: 5 * time.Second}
	_, err = api.Get(context.Background(), custom)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, seen.ReadTimeout)
}

func TestEngine_TransportErrorsAreRetryable(t *testing.T) {
	stub := interfaces.TransportFunc(func(context.Context, *request.Request, *interfaces.Options) (*interfaces.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})
	eng, err := NewEngine(WithLogger(zap.NewNop()), WithTransport(stub), WithRetryer(NeverRetry{}))
	require.NoError(t, err)

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	_, err = api.Get(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestEngine_URLOverrideParameter(t *testing.T) {
	type urlAPI struct {
		Get func(ctx context.Context, base *url.URL, a string) (string, error) `request:"GET /x?a={a}" params:"a"`
	}

	eng := setupEngine(t)
	httpmock.RegisterResponder("GET", "http://other:8080/x",
		httpmock.NewStringResponder(200, "moved"))

	var api urlAPI
	require.NoError(t, eng.Target(&api, "url", "http://h"))

	base, _ := url.Parse("http://other:8080")
	out, err := api.Get(context.Background(), base, "1")
	require.NoError(t, err)
	assert.Equal(t, "moved", out)
}

func TestEngine_HeaderMapParameter(t *testing.T) {
	type headerAPI struct {
		Get func(ctx context.Context, extra map[string]string) (string, error) `request:"GET /x" headermap:"0"`
	}

	eng := setupEngine(t)
	var captured *http.Request
	httpmock.RegisterResponder("GET", "http://h/x", func(req *http.Request) (*http.Response, error) {
		captured = req
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	var api headerAPI
	require.NoError(t, eng.Target(&api, "hdr", "http://h"))

	_, err := api.Get(context.Background(), map[string]string{"X-Request-Id": "abc123"})
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "abc123", captured.Header.Get("X-Request-Id"))
}

func TestEngine_VoidResultDrainsBody(t *testing.T) {
	type voidAPI struct {
		Ping func(ctx context.Context) error `request:"GET /ping"`
	}

	eng := setupEngine(t)
	httpmock.RegisterResponder("GET", "http://h/ping",
		httpmock.NewStringResponder(200, "pong"))

	var api voidAPI
	require.NoError(t, eng.Target(&api, "void", "http://h"))
	require.NoError(t, api.Ping(context.Background()))
}

func TestEngine_TargetValidation(t *testing.T) {
	eng := setupEngine(t)

	require.Error(t, eng.Target(nil, "bad", "http://h"))
	require.Error(t, eng.Target("not a pointer", "bad", "http://h"))

	var api egAPI
	require.Error(t, eng.Target(api, "bad", "http://h"))
	require.Error(t, eng.Target(&api, "bad", ""))
}

type headerCapability struct {
	BaseCapability
}

func (headerCapability) RequestInterceptors(is []interfaces.RequestInterceptor) []interfaces.RequestInterceptor {
	return append(is, interfaces.RequestInterceptorFunc(func(tmpl *request.RequestTemplate) {
		tmpl.Header("X-Capability", "on")
	}))
}

func TestEngine_CapabilityWrapsComponents(t *testing.T) {
	eng := setupEngine(t, WithCapability(headerCapability{}))

	var captured *http.Request
	httpmock.RegisterResponder("GET", "http://h/x", func(req *http.Request) (*http.Response, error) {
		captured = req
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	var api egAPI
	require.NoError(t, eng.Target(&api, "eg", "http://h"))

	_, err := api.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "on", captured.Header.Get("X-Capability"))
}
