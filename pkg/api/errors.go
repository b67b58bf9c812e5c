package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code classifies a server or transport failure so callers can react
// programmatically without parsing error strings.
type Code string

const (
	CodeAuthFailed       Code = "AUTH_FAILED"
	CodeNoSession        Code = "NO_SESSION"
	CodeRefreshFailed    Code = "REFRESH_FAILED"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeCreditsFailed    Code = "CREDITS_FAILED"
	CodeNetwork          Code = "NETWORK_ERROR"
)

var (
	// ErrMissingBaseURL indicates the client was built without a server URL
	ErrMissingBaseURL = errors.New("api.missing_base_url")

	// ErrMissingAppID indicates the client was built without an app ID
	ErrMissingAppID = errors.New("api.missing_app_id")
)

// Error is the structured failure type for every server interaction. Message
// carries the server-reported `detail` verbatim; Raw keeps the full response
// payload for diagnostics.
type Error struct {
	Code    Code
	Status  int
	Message string
	Raw     json.RawMessage
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// NewError builds a structured error for failures originating outside the
// HTTP exchange, e.g. an operation attempted without an active session.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func networkError(cause error) *Error {
	return &Error{Code: CodeNetwork, cause: cause}
}
