// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-rt.

package api

import "fmt"

// Common errors used across the runtime.
var (
	ErrWouldBlock     = fmt.Errorf("operation would block")
	ErrPending        = fmt.Errorf("task still pending")
	ErrCapacity       = fmt.Errorf("task capacity exceeded")
	ErrClosed         = fmt.Errorf("runtime is closed")
	ErrCanceled       = fmt.Errorf("task canceled")
	ErrDeadlock       = fmt.Errorf("all tasks suspended with no pending I/O or timers")
	ErrNotSupported   = fmt.Errorf("operation not supported on this platform")
	ErrStaleWaker     = fmt.Errorf("waker references a reaped task")
	ErrInvalidHandle  = fmt.Errorf("invalid I/O handle")
	ErrInterestOwned  = fmt.Errorf("interest already registered by another task")
	ErrNotRegistered  = fmt.Errorf("handle is not registered")
	ErrAlreadyRunning = fmt.Errorf("executor loop is already running")
)

// ErrorCode represents specific error conditions in the runtime.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeRegistration
	ErrCodeCapacity
	ErrCodeCanceled
	ErrCodeDeadlock
	ErrCodeFatal
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// RegistrationError reports an invalid or conflicting reactor registration.
func RegistrationError(message string, fd int32, interest Interest) *Error {
	return NewError(ErrCodeRegistration, message).
		WithContext("fd", fd).
		WithContext("interest", interest.String())
}

// CapacityError reports an exceeded runtime-defined limit.
func CapacityError(message string, limit int) *Error {
	return NewError(ErrCodeCapacity, message).
		WithContext("limit", limit).
		WithCause(ErrCapacity)
}
