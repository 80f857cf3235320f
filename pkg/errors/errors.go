package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Domain error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrInvalidRange
	ErrConflict
	ErrInvalidTransition
	ErrAlreadyCancelled
	ErrPlanAlreadyComplete
	ErrHasCompletedSessions
	ErrIntegrityFault
	ErrOperationFailed
)

// AppError represents an application error. Details carries
// error-specific payload (conflict set, completed-session count)
// so callers can render it.
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is treats two AppErrors with the same code as equivalent, so callers
// can match on the code with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// StatusCode maps the error to an HTTP status. Used by the error
// handling middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation, ErrInvalidRange:
		return http.StatusBadRequest
	case ErrConflict, ErrInvalidTransition, ErrAlreadyCancelled,
		ErrPlanAlreadyComplete, ErrHasCompletedSessions:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewValidation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func NewInvalidRange(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidRange,
		Message: message,
	}
}

// NewConflict carries the set of conflicting appointments so the caller
// can render "N conflicting appointment(s)".
func NewConflict(conflicts interface{}) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: "time slot conflicts with existing appointments",
		Details: conflicts,
	}
}

func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("invalid transition from %s to %s", from, to),
	}
}

func NewAlreadyCancelled() *AppError {
	return &AppError{
		Code:    ErrAlreadyCancelled,
		Message: "appointment is already cancelled",
	}
}

func NewPlanAlreadyComplete() *AppError {
	return &AppError{
		Code:    ErrPlanAlreadyComplete,
		Message: "treatment plan has no remaining sessions",
	}
}

// NewHasCompletedSessions carries the completed-session count so the
// caller can decide whether to force the delete.
func NewHasCompletedSessions(count int) *AppError {
	return &AppError{
		Code:    ErrHasCompletedSessions,
		Message: fmt.Sprintf("plan has %d completed session(s); use force to delete", count),
		Details: map[string]int{"completed_sessions": count},
	}
}

// NewIntegrityFault signals a state that should be unreachable, e.g. a
// session counter about to exceed its target. Never auto-corrected.
func NewIntegrityFault(message string) *AppError {
	return &AppError{
		Code:    ErrIntegrityFault,
		Message: message,
	}
}

func NewOperationFailed(err error) *AppError {
	return &AppError{
		Code:    ErrOperationFailed,
		Message: "operation failed",
		Err:     err,
	}
}

// Code extracts the ErrorCode from err, or 0 if err is not an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}
