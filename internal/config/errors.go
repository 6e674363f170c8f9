package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfigFile is returned when the configuration path does not exist.
	ErrMissingConfigFile = errors.New("config file not found")

	// ErrConfigLoad wraps any failure to read, parse or decode a configuration.
	ErrConfigLoad = errors.New("failed to load config")

	// ErrUnrecognizedShape is returned when a document is neither a benchmark
	// nor a comparison configuration (or claims to be both).
	ErrUnrecognizedShape = errors.New("unrecognized configuration format")
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ConfigurationError is a collection of validation errors. A configuration
// that produces one is rejected as a whole.
type ConfigurationError struct {
	Errors []*ValidationError
}

func (e *ConfigurationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ConfigurationError) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ConfigurationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// orNil returns e when it holds errors and nil otherwise.
func (e *ConfigurationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
