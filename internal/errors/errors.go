package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors.
//
// The session codes (AUTH_INPUT through PROTOCOL) are the failure taxonomy of a
// terminal session and are mirrored on the wire as lowercase diagnostic codes.
const (
	ErrConfig = "CONFIG"
	ErrServer = "SERVER"

	ErrAuthInput       = "AUTH_INPUT"
	ErrUpstreamConnect = "UPSTREAM_CONNECT"
	ErrUpstreamAuth    = "UPSTREAM_AUTH"
	ErrStreamIO        = "STREAM_IO"
	ErrProtocol        = "PROTOCOL"
	ErrTimeout         = "TIMEOUT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// When printed on a terminal it follows the layout:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Detail returns a single-line description: the message, followed by the
// cause when there is one. Used where the multi-line layout doesn't fit,
// such as diagnostics sent to a browser.
func (e *Error) Detail() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf returns the code of the first structured Error in err's chain,
// or the empty string if there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var smErr *Error
	if errors.As(err, &smErr) {
		return smErr.Code
	}
	return ""
}

// WireCode converts an error code to its lowercase wire form
// (UPSTREAM_AUTH -> upstream_auth).
func WireCode(code string) string {
	return strings.ToLower(code)
}
