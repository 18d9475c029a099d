// Package apperr provides the coded error type shared by the extraction,
// flagging and rendering stages. Callers branch on the Code with IsCode
// rather than on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a failure.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeWriteFailure     Code = "WRITE_FAILURE"
	CodeInvalidConfig    Code = "INVALID_CONFIG"
	CodeUnsupported      Code = "UNSUPPORTED"
)

func (c Code) String() string {
	return string(c)
}

// Error is the structured error carried across stage boundaries.
type Error struct {
	Code    Code
	Message string
	// Path is the file the failure relates to, if any.
	Path  string
	Cause error
}

// Error implements the error interface.
// Format: "[<code>] <message> (<path>): <cause>"
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns a copy of e with Path set. Safe on nil.
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Path = path
	return &clone
}

// New constructs an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error around err. It returns nil when err is nil.
// CodeUnknown keeps the code of an *Error already in the chain.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *Error
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any *Error in err's chain carries code.
func IsCode(err error, code Code) bool {
	for err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Cause
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain.
func GetCode(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func NotFound(path string, cause error) *Error {
	return &Error{Code: CodeResourceNotFound, Message: "resource not found", Path: path, Cause: cause}
}

func InvalidFormat(path string, cause error) *Error {
	return &Error{Code: CodeInvalidFormat, Message: "invalid format", Path: path, Cause: cause}
}

func WriteFailure(path string, cause error) *Error {
	return &Error{Code: CodeWriteFailure, Message: "write failed", Path: path, Cause: cause}
}

func InvalidConfig(message string) *Error {
	return &Error{Code: CodeInvalidConfig, Message: message}
}
