package config

import "fmt"

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType int

const (
	// ConfigNotFound indicates an explicitly requested configuration file was not found.
	ConfigNotFound ConfigErrorType = iota
	// ConfigInvalid indicates the configuration file has invalid syntax or structure.
	ConfigInvalid
	// ConfigValidationFailed indicates a configuration value is out of range.
	ConfigValidationFailed
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	// Type is the error type.
	Type ConfigErrorType
	// Message is the error message.
	Message string
	// File is the configuration file path (empty for defaults and overrides).
	File string
	// Field is the koanf key that caused the error.
	Field string
	// Cause is the underlying error if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	where := "configuration"
	if e.File != "" {
		where = "configuration " + e.File
	}
	if e.Field != "" {
		where = fmt.Sprintf("%s [field: %s]", where, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// newFieldError creates a validation error for a single key.
func newFieldError(field, message string) *ConfigError {
	return &ConfigError{
		Type:    ConfigValidationFailed,
		Field:   field,
		Message: message,
	}
}

// newFileError creates an error for a configuration file.
func newFileError(typ ConfigErrorType, file, message string, cause error) *ConfigError {
	return &ConfigError{
		Type:    typ,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}
