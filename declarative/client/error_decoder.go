package client

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deploymenttheory/go-declarative-http/declarative/interfaces"
)

// DefaultErrorDecoder maps non-2xx responses to RemoteError, pulling the
// message and detail list out of JSON bodies without assuming a schema.
// Transient statuses (429, 502, 503, 504) come back wrapped in
// RetryableError, with RetryAfter parsed from the Retry-After header when
// the server sent one.
type DefaultErrorDecoder struct{}

// Ensure DefaultErrorDecoder implements the interface
var _ interfaces.ErrorDecoder = (*DefaultErrorDecoder)(nil)

// Decode implements interfaces.ErrorDecoder.
func (DefaultErrorDecoder) Decode(configKey string, resp *interfaces.Response) error {
	body, _ := resp.ReadBody()

	remote := &RemoteError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		ConfigKey:  configKey,
		Headers:    resp.Headers,
	}
	if resp.Request != nil {
		remote.Method = resp.Request.Method
	}

	if gjson.ValidBytes(body) {
		remote.Message = gjson.GetBytes(body, "message").String()
		for _, d := range gjson.GetBytes(body, "errors").Array() {
			remote.Details = append(remote.Details, d.String())
		}
	}
	if remote.Message == "" {
		remote.Message = defaultStatusMessage(resp.StatusCode, body)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &RetryableError{
			Cause:      remote,
			Method:     remote.Method,
			RetryAfter: parseRetryAfter(resp.Header("Retry-After")),
		}
	}
	return remote
}

// defaultStatusMessage falls back to the raw body, then to a canned
// message per status code.
func defaultStatusMessage(status int, body []byte) string {
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	switch status {
	case http.StatusBadRequest:
		return "bad request - the request is invalid or malformed"
	case http.StatusUnauthorized:
		return "authentication required or invalid credentials"
	case http.StatusForbidden:
		return "access forbidden"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	case http.StatusUnprocessableEntity:
		return "validation error - the request contains invalid parameters"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway:
		return "bad gateway"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "gateway timeout"
	}
	return "unknown error"
}

// parseRetryAfter accepts both Retry-After forms: delta seconds and an
// HTTP date.
func parseRetryAfter(value string) *time.Time {
	if value == "" {
		return nil
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		at := time.Now().Add(time.Duration(secs) * time.Second)
		return &at
	}
	if at, err := http.ParseTime(value); err == nil {
		return &at
	}
	return nil
}
