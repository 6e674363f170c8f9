// Package jsonschema wraps santhosh-tekuri/jsonschema with a compiled-schema
// type that reports every leaf violation with its instance location.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is a single schema violation.
type Violation struct {
	// Location is the JSON pointer of the offending value, e.g. "/groups/0/threads"
	Location string
	Message  string
}

func (v Violation) Error() string {
	if v.Location == "" {
		return fmt.Sprintf("validation error at root: %s", v.Message)
	}
	return fmt.Sprintf("validation error at %s: %s", v.Location, v.Message)
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors []Violation

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles schemaStr under the given resource name.
func Compile(name, schemaStr string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(name, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{name: name, schema: schema}, nil
}

// MustCompile is like Compile but panics on error. Intended for schemas
// embedded in the binary.
func MustCompile(name, schemaStr string) *Schema {
	s, err := Compile(name, schemaStr)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates a JSON document. It returns nil when the document
// is valid. Malformed JSON is reported as a single root violation.
func (s *Schema) ValidateJSON(data []byte) ValidationErrors {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	return s.Validate(doc)
}

// Validate validates an already decoded JSON value (as produced by
// encoding/json into interface{}).
func (s *Schema) Validate(doc interface{}) ValidationErrors {
	err := s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		return extractViolations(validationErr)
	}
	return ValidationErrors{{Message: err.Error()}}
}

// extractViolations collects the leaf errors of a jsonschema.ValidationError.
// Intermediate nodes only say "doesn't validate with ..." and are skipped.
func extractViolations(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		return ValidationErrors{{Location: err.InstanceLocation, Message: err.Message}}
	}

	var violations ValidationErrors
	for _, childErr := range err.Causes {
		violations = append(violations, extractViolations(childErr)...)
	}
	return violations
}
