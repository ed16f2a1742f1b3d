package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeRemoteUnavailable represents failures contacting the remote cache tier
	ErrTypeRemoteUnavailable ErrorType = "remote_unavailable"
	// ErrTypeMalformedValue represents cached payloads that cannot be decoded
	ErrTypeMalformedValue ErrorType = "malformed_value"
	// ErrTypeSourceLookup represents persistent store failures during warming or pre-caching
	ErrTypeSourceLookup ErrorType = "source_lookup"
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
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

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// RemoteUnavailableError creates a new remote tier failure error
func RemoteUnavailableError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeRemoteUnavailable,
		Message: fmt.Sprintf("remote tier unavailable during %s", operation),
		Cause:   cause,
	}
}

// MalformedValueError creates a new malformed cached value error
func MalformedValueError(key string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeMalformedValue,
		Message: fmt.Sprintf("cached value for %q cannot be decoded", key),
		Cause:   cause,
	}
}

// SourceLookupError creates a new persistent store lookup error
func SourceLookupError(key string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeSourceLookup,
		Message: fmt.Sprintf("source lookup failed for %q", key),
		Cause:   cause,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}
