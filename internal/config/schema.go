package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed release-config-v1.yaml
var schemaBytes []byte

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result holds the outcome of a validation pass.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks raw YAML configuration against the embedded schema without
// decoding it into Config.
func Validate(data []byte) (*Result, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing configuration YAML: %w", err)
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting configuration to JSON: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(docJSON))
	if err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "(root)" {
			field = ""
		}
		res.Errors = append(res.Errors, ValidationError{
			Path:    field,
			Message: verr.Description(),
		})
	}
	return res, nil
}

// compiledSchema converts the embedded YAML schema to JSON and compiles it.
func compiledSchema() (*gojsonschema.Schema, error) {
	var schemaDoc any
	if err := yaml.Unmarshal(schemaBytes, &schemaDoc); err != nil {
		return nil, fmt.Errorf("parsing embedded schema: %w", err)
	}
	schemaJSON, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("converting embedded schema: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}
	return schema, nil
}
