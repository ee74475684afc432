package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation       ErrorCategory = "validation"        // Value violates the config schema
	ErrCatInvalidOperation ErrorCategory = "invalid_operation" // Caller contract violation
	ErrCatPersistence      ErrorCategory = "persistence"       // Storage failure during load/save/detect
	ErrCatNotFound         ErrorCategory = "not_found"         // Resource not found
	ErrCatInternal         ErrorCategory = "internal"          // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrInvalidOperation creates an invalid operation error.
func ErrInvalidOperation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInvalidOperation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrPersistence creates a persistence error. Persistence failures are
// retryable: the session is left untouched so the same call can be repeated.
func ErrPersistence(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatPersistence,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeNotFound,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrInternal creates an internal error.
func ErrInternal(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInternal,
		Code:      CodeInternal,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// GetCode extracts the error code, or CodeInternal for foreign errors.
func GetCode(err error) string {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}
	return CodeInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return err != nil && GetCategory(err) == cat
}

func IsValidation(err error) bool       { return IsCategory(err, ErrCatValidation) }
func IsInvalidOperation(err error) bool { return IsCategory(err, ErrCatInvalidOperation) }
func IsPersistence(err error) bool      { return IsCategory(err, ErrCatPersistence) }
func IsNotFound(err error) bool         { return IsCategory(err, ErrCatNotFound) }

// Predefined error codes
const (
	CodeNotFound = "NOT_FOUND"
	CodeInternal = "INTERNAL"

	// Validation error codes
	CodeUnknownPath   = "UNKNOWN_PATH"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidOption = "INVALID_OPTION"
	CodeTypeMismatch  = "TYPE_MISMATCH"
	CodeEmptyRuleText = "EMPTY_RULE_TEXT"
	CodeInvalidScope  = "INVALID_SCOPE"
	CodeInvalidLayer  = "INVALID_LAYER"

	// Invalid operation error codes
	CodeNothingToReset        = "NOTHING_TO_RESET"
	CodeCannotDeleteInherited = "CANNOT_DELETE_INHERITED"
	CodeRuleNotFound          = "RULE_NOT_FOUND"
	CodeNoSuggestion          = "NO_SUGGESTION"
	CodeUnknownPreset         = "UNKNOWN_PRESET"
	CodeSessionClosed         = "SESSION_CLOSED"

	// Persistence error codes
	CodeLoadFailed   = "LOAD_FAILED"
	CodeSaveFailed   = "SAVE_FAILED"
	CodeClearFailed  = "CLEAR_FAILED"
	CodeDetectFailed = "DETECT_FAILED"
)
