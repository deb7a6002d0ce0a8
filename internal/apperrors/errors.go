// Package apperrors defines the error taxonomy shared by the publish pipeline,
// the data refresh and the HTTP layer. Every typed error matches one of the
// sentinels below through errors.Is, so callers can branch on the category
// without caring about the concrete type.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel categories.
var (
	// ErrConfig indicates that required configuration is absent or malformed
	ErrConfig = errors.New("configuration error")

	// ErrRemote indicates that a remote API answered with a failure
	ErrRemote = errors.New("remote error")

	// ErrNetwork indicates a transport-level failure
	ErrNetwork = errors.New("network error")

	// ErrValidation indicates malformed input
	ErrValidation = errors.New("validation error")
)

// ConfigError names the configuration value that is missing or malformed.
type ConfigError struct {
	Key     string
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("missing configuration: %s", e.Key)
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}

// RemoteError is a non-success answer from a remote API, or a body that
// could not be decoded.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error for %s: %d %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error for %s: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a new RemoteError
func NewRemoteError(operation string, statusCode int, message string) *RemoteError {
	return &RemoteError{Operation: operation, StatusCode: statusCode, Message: message}
}

// NetworkError wraps a transport failure (offline, DNS, timeout).
type NetworkError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Err: err}
}

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is, or wraps, a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
