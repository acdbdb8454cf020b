// Package schema validates JSON payloads against a JSON Schema file.
package schema

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Issue is one schema violation.
type Issue struct {
	Field       string
	Description string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Description)
}

// ValidateFile validates document against the schema at schemaPath. A nil
// issue slice means the document conforms; a returned error means validation
// itself could not run (unreadable schema, malformed JSON).
func ValidateFile(document []byte, schemaPath string) ([]Issue, error) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
	}
	return Validate(document, schemaData)
}

// Validate validates document against an in-memory schema.
func Validate(document, schemaData []byte) ([]Issue, error) {
	schemaLoader := gojsonschema.NewBytesLoader(schemaData)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, Issue{
			Field:       desc.Field(),
			Description: desc.Description(),
		})
	}
	return issues, nil
}
