package vkapi

import (
	"errors"
	"fmt"
)

// API error codes this package treats specially
const (
	ErrCodeUnknown         = 1
	ErrCodeAuth            = 5
	ErrCodeTooManyRequests = 6
	ErrCodeFloodControl    = 9
	ErrCodeInternal        = 10
	ErrCodeAccessDenied    = 15
	ErrCodeGroupAuth       = 27
)

// Error object returned by the API in place of a response.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
	// name of the method which failed; filled in by the client
	Method string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("vk api error %d (%s): %s", e.Code, e.Method, e.Message)
	}
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// Credential is invalid, revoked, or lacks access. Retrying won't help.
func (e *APIError) IsAuth() bool {
	switch e.Code {
	case ErrCodeAuth, ErrCodeAccessDenied, ErrCodeGroupAuth:
		return true
	}
	return false
}

// Transient server-side condition; the same request may succeed later.
func (e *APIError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeUnknown, ErrCodeTooManyRequests, ErrCodeFloodControl, ErrCodeInternal:
		return true
	}
	return false
}

// Unexpected (non-200) HTTP status from the API. The retrying HTTP client has already retried 5xx statuses by the time this is returned.
type HTTPError struct {
	StatusCode int
	Method     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("vk api http error %d (%s)", e.StatusCode, e.Method)
}

func IsAuthError(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.IsAuth()
	}
	return false
}

func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.IsRetryable()
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500
	}
	return false
}
