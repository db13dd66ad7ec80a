// Package apperr carries service-layer failures to the HTTP layer with a
// stable client message and an optional underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error { return New(CodeInvalidArgument, msg) }

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func Unauthorized(msg string) error { return New(CodeUnauthenticated, msg) }

func Forbidden(msg string) error { return New(CodePermissionDenied, msg) }

func Conflict(msg string) error { return New(CodeFailedPrecondition, msg) }

func TooManyRequests(msg string) error { return New(CodeResourceExhausted, msg) }

func Internal(msg string, cause error) error { return Wrap(CodeInternal, msg, cause) }

// From extracts an *AppError from err.  Errors that are not AppErrors are
// reported as internal failures with a generic message.
func From(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return &AppError{Code: CodeInternal, Message: "Internal Server Error", Cause: err}
}

// CodeOf returns the code of err, or CodeUnknown for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	return From(err).Code
}
