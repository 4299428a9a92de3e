package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrorType represents the category of a subscription failure.
type ErrorType string

const (
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeHTTP      ErrorType = "http_status"
	ErrorTypeAuth      ErrorType = "auth"
)

// StreamError is a structured subscription error with type, HTTP status
// (when applicable), and message.
type StreamError struct {
	Type    ErrorType
	Status  int // HTTP status code, set when Type is ErrorTypeHTTP
	Message string
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Type, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewTransportError creates a StreamError for network-level failures.
func NewTransportError(message string) *StreamError {
	return &StreamError{
		Type:    ErrorTypeTransport,
		Message: message,
	}
}

// NewAuthError creates a StreamError for token source failures.
func NewAuthError(message string) *StreamError {
	return &StreamError{
		Type:    ErrorTypeAuth,
		Message: message,
	}
}

// MapHTTPError converts a response with a non-2xx status code into a
// StreamError, using a snippet of the body as the message when present.
func MapHTTPError(resp *http.Response) *StreamError {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if message == "" {
		message = "unexpected status from event source"
	}
	return &StreamError{
		Type:    ErrorTypeHTTP,
		Status:  resp.StatusCode,
		Message: message,
	}
}

// MapNetworkError converts a network-level error (connection refused,
// timeout, DNS resolution failure) into a StreamError.
func MapNetworkError(err error) *StreamError {
	return NewTransportError(fmt.Sprintf("connecting to event source: %s", err.Error()))
}

// extractErrorMessage reads a bounded snippet of the error response body.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil || len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(string(data))
}
