// Package schemas provides JSON Schema validation for AI collaborator
// responses. Any schema violation is a collaborator error, not a data-model
// error: the response is discarded and the dependent mutation never runs.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.json
var schemaFiles embed.FS

// Schema names for the known collaborator response shapes.
const (
	EmploymentResponse = "employment.schema.json"
	ProjectResponse    = "project.schema.json"
	SkillsResponse     = "skills.schema.json"
	GenerationResponse = "generation.schema.json"
)

// ValidationError reports field-level violations of a response schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is a single violation at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fmt.Sprintf("response violates %s: %s", e.Schema, strings.Join(msgs, "; "))
}

// SchemaLoadError reports a failure loading or parsing a schema itself.
type SchemaLoadError struct {
	Schema string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Schema, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// Validate checks a JSON document against the named embedded schema.
func Validate(schemaName string, document []byte) error {
	raw, err := schemaFiles.ReadFile(schemaName)
	if err != nil {
		return &SchemaLoadError{Schema: schemaName, Cause: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(raw),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return &SchemaLoadError{Schema: schemaName, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: schemaName}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}
