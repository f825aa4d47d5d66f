package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("name already present")
	ErrInvalidJSON  = errors.New("invalid JSON format")
	ErrIO           = errors.New("filesystem failure")
	ErrHTTP         = errors.New("http request failed")
	ErrBuilderState = errors.New("operation not allowed in current request state")
	ErrDisabled     = errors.New("request handling is disabled")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypePath         ErrorType = "path"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeDuplicate    ErrorType = "duplicate"
	ErrorTypeInvalidJSON  ErrorType = "invalid_json"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeHTTP         ErrorType = "http"
	ErrorTypeBuilderState ErrorType = "builder_state"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
		Err:     err,
	}
}

// NewPathError creates a new error for a malformed path string
func NewPathError(message string, err error) *AppError {
	return newError(ErrorTypePath, message, err)
}

// NewNotFoundError creates a new error for a missing node or cache name
func NewNotFoundError(message string, err error) *AppError {
	return newError(ErrorTypeNotFound, message, err)
}

// NewDuplicateError creates a new error for a cache name collision
func NewDuplicateError(message string, err error) *AppError {
	return newError(ErrorTypeDuplicate, message, err)
}

// NewInvalidJSONError creates a new error related to JSON parsing
func NewInvalidJSONError(message string, err error) *AppError {
	return newError(ErrorTypeInvalidJSON, message, err)
}

// NewIOError creates a new error related to filesystem access
func NewIOError(message string, err error) *AppError {
	return newError(ErrorTypeIO, message, err)
}

// NewHTTPError creates a new error for network failures or unusable responses
func NewHTTPError(message string, err error) *AppError {
	return newError(ErrorTypeHTTP, message, err)
}

// NewBuilderStateError creates a new error for a request operation invoked in the wrong state
func NewBuilderStateError(message string, err error) *AppError {
	return newError(ErrorTypeBuilderState, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypePath:
			return fmt.Sprintf("Path error: %s", appErr.Message)
		case ErrorTypeNotFound:
			return fmt.Sprintf("Not found: %s", appErr.Message)
		case ErrorTypeDuplicate:
			return fmt.Sprintf("Duplicate name: %s", appErr.Message)
		case ErrorTypeInvalidJSON:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeIO:
			return fmt.Sprintf("File error: %s", appErr.Message)
		case ErrorTypeHTTP:
			return fmt.Sprintf("Request error: %s", appErr.Message)
		case ErrorTypeBuilderState:
			return fmt.Sprintf("Request state error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrNotFound) {
		return "Error: The requested value could not be found."
	}
	if errors.Is(err, ErrDisabled) {
		return "Error: Request handling is disabled. Set 'handle-request: true' in the config."
	}

	return fmt.Sprintf("Error: %v", err)
}
