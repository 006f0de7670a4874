package client

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
	"github.com/deploymenttheory/go-declarative-http/declarative/request"
)

func errorResponse(status int, body string, headers http.Header) *interfaces.Response {
	if headers == nil {
		headers = make(http.Header)
	}
	req, _ := request.New().SetMethod("GET").SetTarget("http://h").SetURI("/x").Request()
	return &interfaces.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Headers:    headers,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}
}

func TestErrorDecoder_ParsesJSONMessageAndErrors(t *testing.T) {
	resp := errorResponse(422, `{"message":"Validation failed","errors":["Field 'name' is required"]}`, nil)

	err := (DefaultErrorDecoder{}).Decode("Eg#create(Context,brewfile)", resp)
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, 422, remote.StatusCode)
	assert.Equal(t, "Validation failed", remote.Message)
	assert.Equal(t, []string{"Field 'name' is required"}, remote.Details)
	assert.Equal(t, "GET", remote.Method)
	assert.Equal(t, "Eg#create(Context,brewfile)", remote.ConfigKey)
	assert.False(t, IsRetryable(err))
}

func TestErrorDecoder_RawBodyFallback(t *testing.T) {
	resp := errorResponse(400, "not json at all", nil)

	err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", resp)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "not json at all", remote.Message)
}

func TestErrorDecoder_EmptyBodyUsesStatusMessage(t *testing.T) {
	resp := errorResponse(500, "", nil)

	err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", resp)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "internal server error", remote.Message)
}

func TestErrorDecoder_TransientStatusesAreRetryable(t *testing.T) {
	for _, status := range []int{429, 502, 503, 504} {
		err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", errorResponse(status, "", nil))

		var re *RetryableError
		require.True(t, errors.As(err, &re), "status %d", status)
		assert.Nil(t, re.RetryAfter)
		assert.True(t, IsRemote(err))
	}
}

func TestErrorDecoder_NonTransientStatusesAreNot(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 409, 500} {
		err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", errorResponse(status, "", nil))
		assert.False(t, IsRetryable(err), "status %d", status)
	}
}

func TestErrorDecoder_RetryAfterSeconds(t *testing.T) {
	headers := http.Header{"Retry-After": []string{"2"}}
	before := time.Now()

	err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", errorResponse(503, "", headers))

	var re *RetryableError
	require.True(t, errors.As(err, &re))
	require.NotNil(t, re.RetryAfter)
	assert.WithinDuration(t, before.Add(2*time.Second), *re.RetryAfter, time.Second)
}

func TestErrorDecoder_RetryAfterHTTPDate(t *testing.T) {
	at := time.Now().Add(30 * time.Second).UTC().Truncate(time.Second)
	headers := http.Header{"Retry-After": []string{at.Format(http.TimeFormat)}}

	err := (DefaultErrorDecoder{}).Decode("Eg#get(Context)", errorResponse(429, "", headers))

	var re *RetryableError
	require.True(t, errors.As(err, &re))
	require.NotNil(t, re.RetryAfter)
	assert.Equal(t, at, re.RetryAfter.UTC())
}

func TestErrorHelpers(t *testing.T) {
	notFound := &RemoteError{StatusCode: 404, Status: "Not Found"}
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsServerError(notFound))

	limited := &RetryableError{Cause: &RemoteError{StatusCode: 429}}
	assert.True(t, IsRateLimited(limited))
	assert.True(t, IsRetryable(limited))

	server := &RemoteError{StatusCode: 503}
	assert.True(t, IsServerError(server))

	code, ok := StatusCode(limited)
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	_, ok = StatusCode(errors.New("plain"))
	assert.False(t, ok)
}
