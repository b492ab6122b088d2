package schema

import (
	"fmt"

	"github.com/marwan116/structured-output-llm/validator"
)

// FieldType is the closed set of primitive field types.
type FieldType string

const (
	TypeInteger FieldType = "integer"
	TypeString  FieldType = "string"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeInteger, TypeString, TypeFloat, TypeBoolean:
		return true
	}
	return false
}

// FieldSpec describes one named, typed output field and its validators.
// Owned exclusively by its Schema and immutable after Build.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Description string
	Validators  []validator.Validator
}

// SchemaError reports a malformed schema at construction time.
type SchemaError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
}

// Schema is an immutable, ordered sequence of field specifications.
// Construct one with a Builder or FromStruct; a built Schema is safe to
// share across concurrent runs.
type Schema struct {
	fields []FieldSpec
	index  map[string]int
}

// Fields returns the field specifications in declaration order.
// The returned slice is a copy.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the specification for a named field.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Builder accumulates field specifications and validates the result.
type Builder struct {
	fields []FieldSpec
}

// NewBuilder creates an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Field appends a field with an explicit type tag.
func (b *Builder) Field(name string, t FieldType, description string, validators ...validator.Validator) *Builder {
	b.fields = append(b.fields, FieldSpec{
		Name:        name,
		Type:        t,
		Description: description,
		Validators:  validators,
	})
	return b
}

// Int appends an integer field.
func (b *Builder) Int(name, description string, validators ...validator.Validator) *Builder {
	return b.Field(name, TypeInteger, description, validators...)
}

// String appends a string field.
func (b *Builder) String(name, description string, validators ...validator.Validator) *Builder {
	return b.Field(name, TypeString, description, validators...)
}

// Float appends a float field.
func (b *Builder) Float(name, description string, validators ...validator.Validator) *Builder {
	return b.Field(name, TypeFloat, description, validators...)
}

// Bool appends a boolean field.
func (b *Builder) Bool(name, description string, validators ...validator.Validator) *Builder {
	return b.Field(name, TypeBoolean, description, validators...)
}

// Build validates the accumulated fields and returns an immutable Schema.
// It fails with *SchemaError on duplicate field names, empty names,
// unknown type tags, or an empty schema.
func (b *Builder) Build() (*Schema, error) {
	if len(b.fields) == 0 {
		return nil, &SchemaError{Message: "schema has no fields"}
	}

	index := make(map[string]int, len(b.fields))
	fields := make([]FieldSpec, len(b.fields))
	for i, f := range b.fields {
		if f.Name == "" {
			return nil, &SchemaError{Message: "field name must not be empty"}
		}
		if !f.Type.Valid() {
			return nil, &SchemaError{Field: f.Name, Message: fmt.Sprintf("unknown type tag %q", f.Type)}
		}
		if _, dup := index[f.Name]; dup {
			return nil, &SchemaError{Field: f.Name, Message: "duplicate field name"}
		}
		index[f.Name] = i

		// Copy validators so later mutation of the caller's slice cannot
		// leak into the built schema.
		vs := make([]validator.Validator, len(f.Validators))
		copy(vs, f.Validators)
		fields[i] = FieldSpec{
			Name:        f.Name,
			Type:        f.Type,
			Description: f.Description,
			Validators:  vs,
		}
	}

	return &Schema{fields: fields, index: index}, nil
}
