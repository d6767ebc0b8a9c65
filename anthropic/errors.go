package anthropic

import (
	"errors"
	"fmt"
	"time"
)

// Error type strings returned by the API in the error envelope.
const (
	ErrorTypeInvalidRequest  = "invalid_request_error"
	ErrorTypeAuthentication  = "authentication_error"
	ErrorTypePermission      = "permission_error"
	ErrorTypeNotFound        = "not_found_error"
	ErrorTypeRequestTooLarge = "request_too_large"
	ErrorTypeRateLimit       = "rate_limit_error"
	ErrorTypeAPI             = "api_error"
	ErrorTypeOverloaded      = "overloaded_error"
)

// Client-side validation errors, returned before any request is sent.
var (
	ErrMissingAPIKey    = errors.New("anthropic: ANTHROPIC_API_KEY is not set")
	ErrMissingModel     = errors.New("anthropic: model is required")
	ErrNoMessages       = errors.New("anthropic: at least one message is required")
	ErrMissingMaxTokens = errors.New("anthropic: max_tokens must be greater than zero")
	ErrBatchEmpty       = errors.New("anthropic: a batch requires at least one request")
	ErrBatchTooLarge    = errors.New("anthropic: batch exceeds the 100,000 request limit")
	ErrBatchTooBig      = errors.New("anthropic: batch payload exceeds 256 MB")
)

// APIError is a non-2xx response from the API, decoded from the vendor
// error envelope {"type":"error","error":{"type":...,"message":...}}.
type APIError struct {
	// Type is one of the ErrorType* constants.
	Type string `json:"type"`
	// Message is the human-readable description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// RequestID is the request-id response header, when present.
	RequestID string `json:"-"`
	// RetryAfter is the server's retry-after hint, when present.
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("anthropic: %s (%d): %s [request-id %s]", e.Type, e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("anthropic: %s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the identical request may succeed.
func (e *APIError) Temporary() bool {
	return e.Type == ErrorTypeRateLimit || e.Type == ErrorTypeOverloaded || e.StatusCode >= 500
}

func isType(err error, t string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}

// IsInvalidRequest reports whether err is an invalid_request_error.
func IsInvalidRequest(err error) bool { return isType(err, ErrorTypeInvalidRequest) }

// IsAuthentication reports whether err is an authentication_error.
func IsAuthentication(err error) bool { return isType(err, ErrorTypeAuthentication) }

// IsPermission reports whether err is a permission_error.
func IsPermission(err error) bool { return isType(err, ErrorTypePermission) }

// IsNotFound reports whether err is a not_found_error.
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsRateLimit reports whether err is a rate_limit_error.
func IsRateLimit(err error) bool { return isType(err, ErrorTypeRateLimit) }

// IsOverloaded reports whether err is an overloaded_error.
func IsOverloaded(err error) bool { return isType(err, ErrorTypeOverloaded) }
