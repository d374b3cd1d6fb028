package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an error so callers can branch without string matching.
type Code string

const (
	// CodeUnknown indicates an uncategorized error
	CodeUnknown Code = "unknown"

	// CodeInvalidArgument indicates the caller supplied a bad value
	// (malformed dice formula, out-of-range parameter, defeated target)
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound indicates the requested resource does not exist
	// (no active combat, unknown turn queue, missing record)
	CodeNotFound Code = "not_found"

	// CodeAlreadyExists indicates an attempt to create a resource that exists
	CodeAlreadyExists Code = "already_exists"

	// CodePermissionDenied indicates the caller lacks the role for the
	// operation, e.g. a player invoking a DM-only transition
	CodePermissionDenied Code = "permission_denied"

	// CodeInvalidToken indicates a reconnection token that is expired,
	// already used, revoked, or unknown
	CodeInvalidToken Code = "invalid_token"

	// CodeConflictDetected indicates unresolved action conflicts block progress
	CodeConflictDetected Code = "conflict_detected"

	// CodeInvariantViolation indicates a caller sequencing bug, e.g. advancing
	// a turn queue that has no active turn. Not recoverable by retry.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal indicates a storage or collaborator failure
	CodeInternal Code = "internal"
)

// Error carries a code, a message, an optional cause, and metadata.
type Error struct {
	// Code is the error code
	Code Code

	// Message is the error message
	Message string

	// Cause is the wrapped error
	Cause error

	// Meta contains additional context, never secrets
	Meta map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context, preserving the code and
// metadata of an already-typed error.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(appErr.Meta),
		}
	}

	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error and overrides its code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// Helper constructors for the common cases

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// AlreadyExists creates an already exists error
func AlreadyExists(message string) *Error {
	return New(CodeAlreadyExists, message)
}

// AlreadyExistsf creates a formatted already exists error
func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

// PermissionDenied creates a permission denied error
func PermissionDenied(message string) *Error {
	return New(CodePermissionDenied, message)
}

// PermissionDeniedf creates a formatted permission denied error
func PermissionDeniedf(format string, args ...any) *Error {
	return Newf(CodePermissionDenied, format, args...)
}

// InvalidToken creates an invalid token error
func InvalidToken(message string) *Error {
	return New(CodeInvalidToken, message)
}

// InvalidTokenf creates a formatted invalid token error
func InvalidTokenf(format string, args ...any) *Error {
	return Newf(CodeInvalidToken, format, args...)
}

// ConflictDetected creates a conflict detected error
func ConflictDetected(message string) *Error {
	return New(CodeConflictDetected, message)
}

// ConflictDetectedf creates a formatted conflict detected error
func ConflictDetectedf(format string, args ...any) *Error {
	return Newf(CodeConflictDetected, format, args...)
}

// InvariantViolation creates an invariant violation error
func InvariantViolation(message string) *Error {
	return New(CodeInvariantViolation, message)
}

// InvariantViolationf creates a formatted invariant violation error
func InvariantViolationf(format string, args ...any) *Error {
	return Newf(CodeInvariantViolation, format, args...)
}

// Internal creates an internal error
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Error checking functions

// Is checks if the error carries a specific code
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, CodeInvalidArgument)
}

// IsAlreadyExists checks if the error is an already exists error
func IsAlreadyExists(err error) bool {
	return Is(err, CodeAlreadyExists)
}

// IsPermissionDenied checks if the error is a permission denied error
func IsPermissionDenied(err error) bool {
	return Is(err, CodePermissionDenied)
}

// IsInvalidToken checks if the error is an invalid token error
func IsInvalidToken(err error) bool {
	return Is(err, CodeInvalidToken)
}

// IsConflictDetected checks if the error is a conflict detected error
func IsConflictDetected(err error) bool {
	return Is(err, CodeConflictDetected)
}

// IsInvariantViolation checks if the error is an invariant violation
func IsInvariantViolation(err error) bool {
	return Is(err, CodeInvariantViolation)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return Is(err, CodeInternal)
}

// GetCode returns the error code, CodeUnknown for untyped errors
func GetCode(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Meta
	}
	return nil
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
