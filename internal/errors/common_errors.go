package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInvalidInput           ErrorType = "INVALID_INPUT"
	ErrTypeUnsupportedAggregation ErrorType = "UNSUPPORTED_AGGREGATION"
	ErrTypeKeyReconciliation      ErrorType = "KEY_RECONCILIATION"
	ErrTypeParsing                ErrorType = "PARSING"
	ErrTypeStorage                ErrorType = "STORAGE"
	ErrTypeValidation             ErrorType = "VALIDATION"
	ErrTypeNotFound               ErrorType = "NOT_FOUND"
	ErrTypeConfig                 ErrorType = "CONFIG"
	ErrTypeUnsupportedFile        ErrorType = "UNSUPPORTED_FILE_TYPE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidInputError creates an error for unusable pivot input
func NewInvalidInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidInput, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewUnsupportedFileError reports an input file whose type cannot be read
func NewUnsupportedFileError(name string) *AppError {
	return NewAppError(ErrTypeUnsupportedFile, "Bad file type on input - not xlsx or csv", nil).WithContext("file", name)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
