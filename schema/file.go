package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/marwan116/structured-output-llm/validator"
)

// fileSchema is the on-disk schema document shape.
type fileSchema struct {
	Fields []fileField `json:"fields"`
}

type fileField struct {
	Name        string          `json:"name"`
	Type        FieldType       `json:"type"`
	Description string          `json:"description"`
	Validators  []fileValidator `json:"validators,omitempty"`
}

type fileValidator struct {
	Name   string            `json:"name"`
	OnFail string            `json:"on_fail"`
	Params map[string]string `json:"params,omitempty"`
}

// FromJSON builds a schema from a JSON document of the form
//
//	{"fields": [
//	  {"name": "age", "type": "integer", "description": "Age in years",
//	   "validators": [
//	     {"name": "valid_range", "on_fail": "fix",
//	      "params": {"min": "0", "max": "120"}}
//	  ]}
//	]}
//
// Validators are resolved through the given registry; a nil registry
// means validator.DefaultRegistry.
func FromJSON(data []byte, registry *validator.Registry) (*Schema, error) {
	if registry == nil {
		registry = validator.DefaultRegistry
	}

	var doc fileSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Message: fmt.Sprintf("invalid schema document: %v", err)}
	}

	b := NewBuilder()
	for _, f := range doc.Fields {
		validators := make([]validator.Validator, 0, len(f.Validators))
		for _, fv := range f.Validators {
			onFail, err := validator.ParseOnFail(fv.OnFail)
			if err != nil {
				return nil, &SchemaError{Field: f.Name, Message: err.Error()}
			}
			v, err := registry.Build(fv.Name, fv.Params, onFail)
			if err != nil {
				return nil, &SchemaError{Field: f.Name, Message: err.Error()}
			}
			validators = append(validators, v)
		}
		b.Field(f.Name, f.Type, f.Description, validators...)
	}
	return b.Build()
}

// FromFile builds a schema from a JSON document on disk.
func FromFile(path string, registry *validator.Registry) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return FromJSON(data, registry)
}
