package envelope

import (
	"errors"
	"fmt"
)

// Envelope is the {success, data, message} wrapper every service call and
// cart operation resolves to, whatever happened on the wire.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    Code   `json:"code,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Success: true, Data: data, Message: message}
}

// Fail builds a failed envelope with the zero value of T.
func Fail[T any](code Code, message string) Envelope[T] {
	return Envelope[T]{Success: false, Code: code, Message: message}
}

// Failf is Fail with a formatted message.
func Failf[T any](code Code, format string, args ...any) Envelope[T] {
	return Fail[T](code, fmt.Sprintf(format, args...))
}

// FromError converts err into a failed envelope. An *Error keeps its code,
// anything else is classified with fallback.
func FromError[T any](err error, fallback Code) Envelope[T] {
	if err == nil {
		return Fail[T](fallback, "unknown error")
	}
	var e *Error
	if errors.As(err, &e) {
		return Fail[T](e.Code, e.Message)
	}
	return Fail[T](fallback, err.Error())
}

// Recast keeps the failure details of e under a different payload type.
func Recast[T, U any](e Envelope[U]) Envelope[T] {
	return Envelope[T]{Success: e.Success, Message: e.Message, Code: e.Code}
}

// Err returns nil for a successful envelope and an *Error otherwise.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	code := e.Code
	if code == CodeNone {
		code = CodeApplication
	}
	return &Error{Code: code, Message: e.Message}
}

// Is reports whether the envelope failed with code.
func (e Envelope[T]) Is(code Code) bool {
	return !e.Success && e.Code == code
}

// Error is the error form of a failed envelope.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *Error by code, so errors.Is(err, envelope.ErrVendorConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrVendorConflict    = &Error{Code: CodeVendorConflict}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrNetwork           = &Error{Code: CodeNetwork}
	ErrMalformedResponse = &Error{Code: CodeMalformedResponse}
	ErrNotFound          = &Error{Code: CodeNotFound}
)
