package rulefile

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed rule-schema.json
var ruleSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// SchemaError reports why a document failed schema validation.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("rulefile: schema violation: %s", strings.Join(e.Problems, "; "))
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(ruleSchemaJSON))
	})

	return schema, schemaErr
}

// validateRaw checks a decoded YAML document against the rule schema.
func validateRaw(raw any) error {
	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("rulefile: load schema: %w", err)
	}

	result, validateErr := s.Validate(gojsonschema.NewGoLoader(raw))
	if validateErr != nil {
		return fmt.Errorf("rulefile: validate: %w", validateErr)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return &SchemaError{Problems: problems}
}
