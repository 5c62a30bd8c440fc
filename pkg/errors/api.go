package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// maxResponseData bounds the body snippet stored on an APIError.
const maxResponseData = 2048

// Details carries the HTTP context of a failed upstream call.
// Every field is optional.
type Details struct {
	StatusCode    int    `json:"statusCode,omitempty"`
	StatusText    string `json:"statusText,omitempty"`
	ResponseData  string `json:"responseData,omitempty"`
	RequestURL    string `json:"requestUrl,omitempty"`
	RequestMethod string `json:"requestMethod,omitempty"`
}

// APIError reports a failed or malformed upstream call.
type APIError struct {
	Source  string // Source id (estat, worldbank, oecd, eurostat)
	Message string
	Details Details
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Message)
	if e.Details.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Details.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.Cause }

// HTTPStatus returns the upstream status code, or 0 when no response was
// received. The retry policy classifies errors through this method.
func (e *APIError) HTTPStatus() int { return e.Details.StatusCode }

// NewAPIError creates an APIError for source with no HTTP context.
func NewAPIError(source, format string, args ...any) *APIError {
	return &APIError{Source: source, Message: fmt.Sprintf(format, args...)}
}

// StatusError creates an APIError for a non-success HTTP response.
// The body is truncated to a short snippet.
func StatusError(source, method, url string, status int, body []byte) *APIError {
	data := string(body)
	if len(data) > maxResponseData {
		data = data[:maxResponseData]
	}
	return &APIError{
		Source:  source,
		Message: "request failed",
		Details: Details{
			StatusCode:    status,
			StatusText:    http.StatusText(status),
			ResponseData:  data,
			RequestURL:    url,
			RequestMethod: method,
		},
	}
}

// TransportError creates an APIError for a request that received no response.
func TransportError(source, method, url string, cause error) *APIError {
	return &APIError{
		Source:  source,
		Message: "network error",
		Details: Details{RequestURL: url, RequestMethod: method},
		Cause:   cause,
	}
}

// InvalidResponse creates an APIError for a payload of the wrong shape.
// Such errors are never retried.
func InvalidResponse(source, url string, cause error) *APIError {
	return &APIError{
		Source:  source,
		Message: "invalid response",
		Details: Details{RequestURL: url, RequestMethod: http.MethodGet},
		Cause:   cause,
	}
}

// IsAPI reports whether err is, or wraps, an *APIError.
func IsAPI(err error) bool {
	var a *APIError
	return errors.As(err, &a)
}
