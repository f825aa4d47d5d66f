package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with wrapped error",
			appError: &AppError{
				Type:    ErrorTypeIO,
				Message: "failed to read doc.json",
				Err:     errors.New("permission denied"),
			},
			expected: "io: failed to read doc.json: permission denied",
		},
		{
			name: "error without wrapped error",
			appError: &AppError{
				Type:    ErrorTypeInvalidJSON,
				Message: "unexpected end of input",
				Err:     nil,
			},
			expected: "invalid_json: unexpected end of input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := NewNotFoundError("cache entry 'd'", ErrNotFound)

	assert.Equal(t, ErrNotFound, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, ErrNotFound))
	assert.False(t, errors.Is(appErr, ErrDuplicate))
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		target   error
		expected bool
	}{
		{
			name:     "same type",
			appError: NewDuplicateError("first", nil),
			target:   NewDuplicateError("second", errors.New("other")),
			expected: true,
		},
		{
			name:     "different type",
			appError: NewDuplicateError("first", nil),
			target:   NewNotFoundError("first", nil),
			expected: false,
		},
		{
			name:     "not an AppError",
			appError: NewHTTPError("send", nil),
			target:   errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Is(tt.target))
		})
	}
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewBuilderStateError("request already built", ErrBuilderState))

	assert.Equal(t, ErrorTypeBuilderState, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestUserFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "path error",
			err:      NewPathError("path is empty", ErrInvalidPath),
			expected: "Path error: path is empty",
		},
		{
			name:     "not found error",
			err:      NewNotFoundError("cache entry 'x'", ErrNotFound),
			expected: "Not found: cache entry 'x'",
		},
		{
			name:     "duplicate error",
			err:      NewDuplicateError("cache entry 'x'", ErrDuplicate),
			expected: "Duplicate name: cache entry 'x'",
		},
		{
			name:     "invalid json error",
			err:      NewInvalidJSONError("syntax error at offset 3", ErrInvalidJSON),
			expected: "JSON parsing error: syntax error at offset 3",
		},
		{
			name:     "io error",
			err:      NewIOError("failed to write doc.json", nil),
			expected: "File error: failed to write doc.json",
		},
		{
			name:     "http error",
			err:      NewHTTPError("connection refused", nil),
			expected: "Request error: connection refused",
		},
		{
			name:     "builder state error",
			err:      NewBuilderStateError("request not built", nil),
			expected: "Request state error: request not built",
		},
		{
			name:     "config error",
			err:      NewConfigError("bad delimiter", nil),
			expected: "Configuration error: bad delimiter",
		},
		{
			name:     "standard error - invalid JSON",
			err:      ErrInvalidJSON,
			expected: "Error: The input contains invalid JSON. Please check your JSON syntax.",
		},
		{
			name:     "standard error - disabled",
			err:      ErrDisabled,
			expected: "Error: Request handling is disabled. Set 'handle-request: true' in the config.",
		},
		{
			name:     "unknown error",
			err:      errors.New("some unknown error"),
			expected: "Error: some unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserFriendlyError(tt.err))
		})
	}
}
