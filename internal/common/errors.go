package common

import (
	"errors"
	"fmt"
)

// ErrorCode represents the kinds of failure the client can surface
type ErrorCode int

const (
	// Session errors
	ErrAuth ErrorCode = iota + 1000
	ErrAccess
	ErrNotAuthenticated

	// Transport errors
	ErrAPI ErrorCode = iota + 2000
	ErrNetwork
	ErrDecode

	// Local errors
	ErrValidation ErrorCode = iota + 3000
	ErrBusy
	ErrInternal
)

var codeNames = map[ErrorCode]string{
	ErrAuth:             "auth",
	ErrAccess:           "access",
	ErrNotAuthenticated: "not_authenticated",
	ErrAPI:              "api",
	ErrNetwork:          "network",
	ErrDecode:           "decode",
	ErrValidation:       "validation",
	ErrBusy:             "busy",
	ErrInternal:         "internal",
}

// String returns the short name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// ClientError is the error type returned by every client component.
// Status is the HTTP status when the error came from a server response, 0 otherwise.
// Message is the server-provided detail (or the "HTTP {status}" fallback) for API errors.
type ClientError struct {
	Code    ErrorCode
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ClientError
func NewError(code ErrorCode, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}

// NewErrorWithCause creates a new ClientError with an underlying cause
func NewErrorWithCause(code ErrorCode, message string, cause error) *ClientError {
	return &ClientError{Code: code, Message: message, Cause: cause}
}

// NewAPIError creates the error for a non-2xx response
func NewAPIError(status int, detail string) *ClientError {
	if detail == "" {
		detail = fmt.Sprintf("HTTP %d", status)
	}
	return &ClientError{Code: ErrAPI, Status: status, Message: detail}
}

// Reclassify returns a copy of err's ClientError under a new code, keeping status and detail.
// Errors that are not ClientErrors are wrapped as the cause.
func Reclassify(err error, code ErrorCode) *ClientError {
	var ce *ClientError
	if errors.As(err, &ce) {
		return &ClientError{Code: code, Status: ce.Status, Message: ce.Message, Cause: ce}
	}
	return &ClientError{Code: code, Message: err.Error(), Cause: err}
}

// IsErrorCode checks if any error in the chain has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var ce *ClientError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Cause
	}
	return false
}

// CodeOf returns the outermost error code, or ErrInternal for foreign errors
func CodeOf(err error) ErrorCode {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrInternal
}

// StatusOf returns the HTTP status carried by err, 0 when there is none
func StatusOf(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// Detail returns the server-provided detail carried by err, if any.
// Only errors that came back from the server (status != 0) carry a detail.
func Detail(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Message
	}
	return ""
}

// NetworkDetail is appended to user messages when the server could not be reached
const NetworkDetail = "no se pudo contactar al servidor"

// UserMessage turns err into the text shown to the user.
// The fallback names the failed action; the server detail is appended when present.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) && (ce.Code == ErrValidation || ce.Code == ErrBusy) {
		return ce.Message
	}
	if detail := Detail(err); detail != "" {
		return fallback + ": " + detail
	}
	if IsErrorCode(err, ErrNetwork) {
		return fallback + ": " + NetworkDetail
	}
	return fallback
}
