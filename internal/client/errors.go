package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed MyChem API call.
type ErrorKind string

const (
	// KindTimeout means the request did not complete within the configured timeout.
	KindTimeout ErrorKind = "Timeout"

	// KindHTTPStatus means the API returned a non-2xx status.
	KindHTTPStatus ErrorKind = "HttpStatus"

	// KindNetwork means the request failed below HTTP (DNS, refused, reset).
	KindNetwork ErrorKind = "Network"

	// KindDecode means the response body was not valid JSON.
	KindDecode ErrorKind = "Decode"

	// KindCancelled means the caller's context was cancelled while waiting
	// on the rate limiter or during network I/O.
	KindCancelled ErrorKind = "Cancelled"
)

// APIError is the single error type surfaced by the client. Callers switch
// on Kind instead of unwrapping transport-specific errors.
type APIError struct {
	Kind    ErrorKind
	Message string

	// StatusCode is set for KindHTTPStatus, zero otherwise.
	StatusCode int

	cause error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mychem: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// AsAPIError unwraps err into an *APIError if one is in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newTimeoutError(cause error) *APIError {
	return &APIError{
		Kind:    KindTimeout,
		Message: "Request timed out. Please try again.",
		cause:   cause,
	}
}

func newStatusError(statusCode int, body string) *APIError {
	return &APIError{
		Kind:       KindHTTPStatus,
		Message:    fmt.Sprintf("HTTP error %d: %s", statusCode, body),
		StatusCode: statusCode,
	}
}

func newNetworkError(cause error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("Request failed: %v", cause),
		cause:   cause,
	}
}

func newDecodeError(cause error) *APIError {
	return &APIError{
		Kind:    KindDecode,
		Message: fmt.Sprintf("Invalid JSON in response: %v", cause),
		cause:   cause,
	}
}

func newCancelledError(cause error) *APIError {
	return &APIError{
		Kind:    KindCancelled,
		Message: "Request cancelled.",
		cause:   cause,
	}
}
