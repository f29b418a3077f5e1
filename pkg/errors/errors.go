package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = NewError("CONFIGURATION_ERROR", "invalid sink configuration")
	ErrInitialization = NewError("INITIALIZATION_ERROR", "handler is not initialized")
	ErrParse          = NewError("PARSE_ERROR", "payload is not a valid document")
	ErrValidation     = NewError("VALIDATION_ERROR", "validation failed")
	ErrDriver         = NewError("DRIVER_ERROR", "document store operation failed")
	ErrInternal       = NewError("INTERNAL_ERROR", "internal error")
)

// Codes that never succeed on a retry of the same message.
var fatalCodes = map[string]bool{
	ErrConfiguration.Code:  true,
	ErrInitialization.Code: true,
	ErrParse.Code:          true,
	ErrValidation.Code:     true,
}

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
		msg = detailMsg
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrParse)
// holds for every parse failure regardless of details.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func (e *Error) IsRetryable() bool {
	return !e.IsFatal()
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}

	if e.Cause != nil {
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) && fatalErr.IsFatal() {
			return true
		}
	}

	return fatalCodes[e.Code]
}

func (e *Error) clone() *Error {
	err := *e
	err.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		err.Details[k] = v
	}
	return &err
}

func (e *Error) WithCause(cause error) *Error {
	err := e.clone()
	err.Cause = cause
	return err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := e.clone()
	err.Details[key] = value
	return err
}

// WithMessage replaces the default message of the error class.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return e.WithDetail("message", fmt.Sprintf(format, args...))
}

func (e *Error) AsRetryable() *Error {
	err := e.clone()
	retryable := true
	err.retryable = &retryable
	return err
}

func (e *Error) AsFatal() *Error {
	err := e.clone()
	retryable := false
	err.retryable = &retryable
	return err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsConfiguration(err error) bool {
	return hasCode(err, ErrConfiguration.Code)
}

func IsInitialization(err error) bool {
	return hasCode(err, ErrInitialization.Code)
}

func IsParse(err error) bool {
	return hasCode(err, ErrParse.Code)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code)
}

// IsFatal reports whether err must not be retried. Errors outside this
// package are considered retryable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fatalErr FatalError
	if errors.As(err, &fatalErr) {
		return fatalErr.IsFatal()
	}
	return false
}

// Code returns the error code, or INTERNAL_ERROR for foreign errors.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}
