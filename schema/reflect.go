package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/marwan116/structured-output-llm/validator"
)

// FromStruct derives a Schema from an annotated struct value, mirroring
// declaration order. Field names come from the "json" tag (falling back
// to the Go field name); descriptions and constraints come from the
// "guard" tag.
//
// Supported guard tag options:
//   - desc=...: field description
//   - onfail=reask|fix|filter|refrain|noop|exception|fix_reask:
//     corrective action for the validators declared in this tag
//   - range=min:max: numeric bounds (valid_range)
//   - choices=a|b|c: enumerated values (valid_choices)
//   - length=min:max: string rune-length bounds (valid_length)
//   - pattern=...: regular expression (valid_pattern)
//   - lower: lower-case strings (lower_case)
//
// Example:
//
//	type PatientInfo struct {
//	    Gender string `json:"gender" guard:"desc=Patient's gender"`
//	    Age    int    `json:"age" guard:"desc=Patient's age,range=0:120,onfail=fix"`
//	}
//	s, err := schema.FromStruct(PatientInfo{})
func FromStruct(v any) (*Schema, error) {
	if v == nil {
		return nil, &SchemaError{Message: "cannot derive schema from nil"}
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Message: fmt.Sprintf("cannot derive schema from %s", t.Kind())}
	}

	b := NewBuilder()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		if name == "-" {
			continue
		}

		ft, err := fieldType(field.Type)
		if err != nil {
			return nil, &SchemaError{Field: field.Name, Message: err.Error()}
		}

		opts := parseGuardTag(field.Tag.Get("guard"))
		validators, err := buildTagValidators(opts)
		if err != nil {
			return nil, &SchemaError{Field: field.Name, Message: err.Error()}
		}

		b.Field(name, ft, opts["desc"], validators...)
	}

	return b.Build()
}

// jsonFieldName extracts the field name from the json tag or falls back
// to the struct field name.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return field.Name
	}
	return name
}

// fieldType maps a Go kind to the closed field type set.
func fieldType(t reflect.Type) (FieldType, error) {
	if t.Kind() == reflect.Ptr {
		return fieldType(t.Elem())
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString, nil
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger, nil
	case reflect.Float32, reflect.Float64:
		return TypeFloat, nil
	default:
		return "", fmt.Errorf("unsupported field kind %s", t.Kind())
	}
}

// buildTagValidators constructs validators declared in a guard tag via
// the default registry.
func buildTagValidators(opts map[string]string) ([]validator.Validator, error) {
	onFail := validator.OnFailNoOp
	if raw, ok := opts["onfail"]; ok {
		parsed, err := validator.ParseOnFail(raw)
		if err != nil {
			return nil, err
		}
		onFail = parsed
	}

	var validators []validator.Validator
	add := func(name string, params map[string]string) error {
		v, err := validator.DefaultRegistry.Build(name, params, onFail)
		if err != nil {
			return err
		}
		validators = append(validators, v)
		return nil
	}

	if raw, ok := opts["range"]; ok {
		min, max, err := splitBounds(raw)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		if err := add("valid_range", map[string]string{"min": min, "max": max}); err != nil {
			return nil, err
		}
	}
	if raw, ok := opts["choices"]; ok {
		if err := add("valid_choices", map[string]string{"choices": raw}); err != nil {
			return nil, err
		}
	}
	if raw, ok := opts["length"]; ok {
		min, max, err := splitBounds(raw)
		if err != nil {
			return nil, fmt.Errorf("length: %w", err)
		}
		if err := add("valid_length", map[string]string{"min": min, "max": max}); err != nil {
			return nil, err
		}
	}
	if raw, ok := opts["pattern"]; ok {
		if err := add("valid_pattern", map[string]string{"pattern": raw}); err != nil {
			return nil, err
		}
	}
	if _, ok := opts["lower"]; ok {
		if err := add("lower_case", nil); err != nil {
			return nil, err
		}
	}

	return validators, nil
}

func splitBounds(raw string) (string, string, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected min:max, got %q", raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// parseGuardTag parses a guard tag into an option map. The format is
// "opt1,opt2=value2,...". Commas inside a value are kept together as
// long as the next segment does not look like a new option key.
func parseGuardTag(tag string) map[string]string {
	opts := make(map[string]string)
	if tag == "" {
		return opts
	}

	for _, part := range splitTagParts(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx > 0 {
			opts[part[:idx]] = part[idx+1:]
		} else {
			opts[part] = ""
		}
	}
	return opts
}

// splitTagParts splits a tag on commas while keeping commas that belong
// to an option value (e.g. a description containing a comma). After an
// "=", a comma only terminates the segment when the following text looks
// like a new key=value option or a known boolean option.
func splitTagParts(tag string) []string {
	knownBoolOptions := map[string]bool{
		"lower": true,
	}

	var parts []string
	var current strings.Builder
	inValue := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]

		switch {
		case ch == '=':
			inValue = true
			current.WriteByte(ch)
		case ch == ',' && !inValue:
			parts = append(parts, current.String())
			current.Reset()
		case ch == ',' && inValue:
			next := tag[i+1:]
			if comma := strings.Index(next, ","); comma >= 0 {
				next = next[:comma]
			}
			next = strings.TrimSpace(next)

			if knownBoolOptions[next] || looksLikeOption(next) {
				parts = append(parts, current.String())
				current.Reset()
				inValue = false
				continue
			}
			current.WriteByte(ch)
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// looksLikeOption reports whether a segment starts with an alphanumeric
// key followed by "=".
func looksLikeOption(segment string) bool {
	idx := strings.Index(segment, "=")
	if idx <= 0 {
		return false
	}
	for _, c := range segment[:idx] {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
